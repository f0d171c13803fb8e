// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf16"
)

// wordGap is the TJ displacement, in thousandths of a text space unit, treated
// as a space between words.
const wordGap = -200

type operandKind int

const (
	operandOther operandKind = iota
	operandNumber
	operandString
	operandArray
)

type operand struct {
	kind  operandKind
	num   float64
	text  string
	items []operand
}

// ScanText decodes the text shown by a PDF content stream.
//
// Strings passed to Tj, TJ, ' and " are emitted in stream order. Line moves
// (T*, Td/TD with a vertical offset, ' and ") and the end of a text object start
// a new line. Wide negative TJ displacements become spaces. Glyph codes are
// decoded as UTF-16BE when the string carries a byte order mark and as Latin-1
// otherwise, so fonts with custom encodings may produce unreadable text.
func ScanText(content []byte) string {
	s := &textScanner{data: content}
	s.scan()
	return strings.TrimSpace(s.out.String())
}

type textScanner struct {
	data  []byte
	pos   int
	out   strings.Builder
	stack []operand
	// arrays under construction, innermost last
	arrays [][]operand
}

func (s *textScanner) scan() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case isWhite(c):
			s.pos++
		case c == '%':
			s.skipComment()
		case c == '(':
			s.push(operand{kind: operandString, text: decodeGlyphs(s.literalString())})
		case c == '<':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
				s.pos += 2
				continue
			}
			s.push(operand{kind: operandString, text: decodeGlyphs(s.hexString())})
		case c == '>':
			s.pos++
		case c == '[':
			s.pos++
			s.arrays = append(s.arrays, nil)
		case c == ']':
			s.pos++
			if n := len(s.arrays); n > 0 {
				items := s.arrays[n-1]
				s.arrays = s.arrays[:n-1]
				s.push(operand{kind: operandArray, items: items})
			}
		case c == '{' || c == '}':
			s.pos++
		case c == '/':
			s.pos++
			s.regular()
			s.push(operand{kind: operandOther})
		default:
			tok := s.regular()
			if tok == "" {
				s.pos++
				continue
			}
			if num, err := strconv.ParseFloat(tok, 64); err == nil {
				s.push(operand{kind: operandNumber, num: num})
				continue
			}
			s.operator(tok)
		}
	}
}

func (s *textScanner) push(op operand) {
	if n := len(s.arrays); n > 0 {
		s.arrays[n-1] = append(s.arrays[n-1], op)
		return
	}
	s.stack = append(s.stack, op)
}

func (s *textScanner) operator(op string) {
	defer func() { s.stack = s.stack[:0] }()

	switch op {
	case "Tj":
		s.show(s.last(operandString))
	case "'":
		s.newline()
		s.show(s.last(operandString))
	case "\"":
		s.newline()
		s.show(s.last(operandString))
	case "TJ":
		if arr := s.last(operandArray); arr != nil {
			for _, item := range arr.items {
				switch item.kind {
				case operandString:
					s.out.WriteString(item.text)
				case operandNumber:
					if item.num <= wordGap {
						s.space()
					}
				}
			}
		}
	case "T*", "ET":
		s.newline()
	case "Td", "TD":
		if len(s.stack) >= 2 {
			tx, ty := s.stack[len(s.stack)-2], s.stack[len(s.stack)-1]
			if ty.kind == operandNumber && ty.num != 0 {
				s.newline()
			} else if tx.kind == operandNumber && tx.num > 0 {
				s.space()
			}
		}
	case "ID":
		s.skipInlineImage()
	}
}

func (s *textScanner) last(kind operandKind) *operand {
	if len(s.stack) == 0 {
		return nil
	}
	op := &s.stack[len(s.stack)-1]
	if op.kind != kind {
		return nil
	}
	return op
}

func (s *textScanner) show(op *operand) {
	if op != nil {
		s.out.WriteString(op.text)
	}
}

func (s *textScanner) newline() {
	str := s.out.String()
	if str == "" || strings.HasSuffix(str, "\n") {
		return
	}
	s.out.WriteByte('\n')
}

func (s *textScanner) space() {
	str := s.out.String()
	if str == "" || strings.HasSuffix(str, " ") || strings.HasSuffix(str, "\n") {
		return
	}
	s.out.WriteByte(' ')
}

func (s *textScanner) skipComment() {
	for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
		s.pos++
	}
}

// regular consumes a run of regular characters.
func (s *textScanner) regular() string {
	start := s.pos
	for s.pos < len(s.data) && !isWhite(s.data[s.pos]) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// literalString consumes a parenthesized string and returns its decoded bytes.
func (s *textScanner) literalString() []byte {
	s.pos++ // (
	var buf []byte
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
			buf = append(buf, c)
		case ')':
			depth--
			if depth == 0 {
				return buf
			}
			buf = append(buf, c)
		case '\\':
			buf = s.escape(buf)
		default:
			buf = append(buf, c)
		}
	}
	return buf
}

func (s *textScanner) escape(buf []byte) []byte {
	if s.pos >= len(s.data) {
		return buf
	}
	c := s.data[s.pos]
	s.pos++
	switch c {
	case 'n':
		return append(buf, '\n')
	case 'r':
		return append(buf, '\r')
	case 't':
		return append(buf, '\t')
	case 'b':
		return append(buf, '\b')
	case 'f':
		return append(buf, '\f')
	case '\r':
		if s.pos < len(s.data) && s.data[s.pos] == '\n' {
			s.pos++
		}
		return buf
	case '\n':
		return buf
	}
	if c >= '0' && c <= '7' {
		v := int(c - '0')
		for i := 0; i < 2 && s.pos < len(s.data); i++ {
			d := s.data[s.pos]
			if d < '0' || d > '7' {
				break
			}
			v = v*8 + int(d-'0')
			s.pos++
		}
		return append(buf, byte(v))
	}
	return append(buf, c)
}

// hexString consumes a <...> string and returns its decoded bytes.
func (s *textScanner) hexString() []byte {
	s.pos++ // <
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; !isWhite(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, hex.DecodedLen(len(digits)))
	n, _ := hex.Decode(out, digits)
	return out[:n]
}

// skipInlineImage moves past the binary data of an inline image up to EI.
func (s *textScanner) skipInlineImage() {
	if s.pos < len(s.data) && isWhite(s.data[s.pos]) {
		s.pos++
	}
	for i := s.pos; i+1 < len(s.data); i++ {
		if s.data[i] != 'E' || s.data[i+1] != 'I' {
			continue
		}
		before := i == 0 || isWhite(s.data[i-1])
		after := i+2 >= len(s.data) || isWhite(s.data[i+2])
		if before && after {
			s.pos = i + 2
			return
		}
	}
	s.pos = len(s.data)
}

// decodeGlyphs maps string bytes to text: UTF-16BE with a byte order mark, Latin-1 otherwise.
func decodeGlyphs(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		b = b[2:]
		units := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(units))
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c == 0 {
			continue
		}
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return bytes.IndexByte([]byte("()<>[]{}/%"), c) >= 0
}
