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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/docflow/core"
)

// DocumentHeader is the persisted part of a Document that is neither file
// bytes nor pages.
type DocumentHeader struct {
	ID              string
	Name            string
	MediaType       core.MediaType
	TableOfContents string
	FileID          string
	FileName        string
	Checksum        string
}

// NewDocumentHeader extracts the header of doc.
func NewDocumentHeader(doc *core.Document) *DocumentHeader {
	h := &DocumentHeader{
		ID:              doc.ID,
		Name:            doc.Name,
		MediaType:       doc.MediaType,
		TableOfContents: doc.TableOfContents,
	}
	if doc.File != nil {
		h.FileID = doc.File.ID
		h.FileName = doc.File.Name
		h.Checksum = doc.File.Checksum()
	}
	return h
}

// Document rebuilds a Document from the header, the file bytes and the pages.
func (h *DocumentHeader) Document(fileBytes []byte, pages []*core.Page) *core.Document {
	doc := &core.Document{
		ID:              h.ID,
		Name:            h.Name,
		MediaType:       h.MediaType,
		TableOfContents: h.TableOfContents,
		Pages:           pages,
	}
	if h.FileID != "" {
		doc.File = &core.File{ID: h.FileID, Name: h.FileName, Bytes: fileBytes}
	}
	return doc
}

// MarshalDocumentHeader serializes a DocumentHeader to bytes.
func MarshalDocumentHeader(h *DocumentHeader) []byte {
	fields := h.fields()
	buf := make([]byte, sizeStrings(fields...))
	marshalStrings(buf, fields...)
	return buf
}

// UnmarshalDocumentHeader deserializes a DocumentHeader from bytes.
func UnmarshalDocumentHeader(data []byte) (*DocumentHeader, error) {
	var (
		h         DocumentHeader
		mediaType string
	)
	if _, err := unmarshalStrings(data, &h.ID, &h.Name, &mediaType, &h.TableOfContents, &h.FileID, &h.FileName, &h.Checksum); err != nil {
		return nil, fmt.Errorf("%w: document header: %w", ErrSerializationFailed, err)
	}
	h.MediaType = core.MediaType(mediaType)
	return &h, nil
}

func (h *DocumentHeader) fields() []string {
	return []string{h.ID, h.Name, string(h.MediaType), h.TableOfContents, h.FileID, h.FileName, h.Checksum}
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	micros := checkpoint.UpdatedAt.UnixMicro()
	buf := make([]byte, sizeStrings(checkpoint.ProcessorType, checkpoint.LastDocumentID)+varint.Int64.Size(micros))
	n := marshalStrings(buf, checkpoint.ProcessorType, checkpoint.LastDocumentID)
	varint.Int64.Marshal(micros, buf[n:])
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	var checkpoint core.Checkpoint
	n, err := unmarshalStrings(data, &checkpoint.ProcessorType, &checkpoint.LastDocumentID)
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint: %w", ErrSerializationFailed, err)
	}
	micros, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: checkpoint: %w", ErrSerializationFailed, err)
	}
	checkpoint.UpdatedAt = time.UnixMicro(micros).UTC()
	return &checkpoint, nil
}

// MarshalPage serializes a Page, including its image and embedding, to bytes.
func MarshalPage(page *core.Page) []byte {
	buf := make([]byte, sizePage(page))
	marshalPage(page, buf)
	return buf
}

// UnmarshalPage deserializes a Page from bytes.
func UnmarshalPage(data []byte) (*core.Page, error) {
	page, _, err := unmarshalPage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: page: %w", ErrSerializationFailed, err)
	}
	return page, nil
}

// Wire layout of a page: ID, DocumentID, number, RawText, Text, Overview,
// section titles, optional image, optional embedding.

func sizePage(p *core.Page) int {
	size := sizeStrings(p.ID, p.DocumentID) + varint.Int.Size(p.Number()) +
		sizeStrings(p.RawText, p.Text, p.Overview) +
		varint.PositiveInt.Size(len(p.SectionTitles)) + sizeStrings(p.SectionTitles...)

	size += ord.Bool.Size(p.Image != nil)
	if p.Image != nil {
		size += ord.String.Size(string(p.Image.MediaType)) + sizeBytes(p.Image.Data)
	}

	size += ord.Bool.Size(p.Embedding != nil)
	if p.Embedding != nil {
		size += sizeStrings(p.Embedding.ID, p.Embedding.Model) + sizeVector(p.Embedding.Vector)
	}
	return size
}

func marshalPage(p *core.Page, bs []byte) (n int) {
	n = marshalStrings(bs, p.ID, p.DocumentID)
	n += varint.Int.Marshal(p.Number(), bs[n:])
	n += marshalStrings(bs[n:], p.RawText, p.Text, p.Overview)
	n += varint.PositiveInt.Marshal(len(p.SectionTitles), bs[n:])
	n += marshalStrings(bs[n:], p.SectionTitles...)

	n += ord.Bool.Marshal(p.Image != nil, bs[n:])
	if p.Image != nil {
		n += ord.String.Marshal(string(p.Image.MediaType), bs[n:])
		n += marshalBytes(p.Image.Data, bs[n:])
	}

	n += ord.Bool.Marshal(p.Embedding != nil, bs[n:])
	if p.Embedding != nil {
		n += marshalStrings(bs[n:], p.Embedding.ID, p.Embedding.Model)
		n += marshalVector(p.Embedding.Vector, bs[n:])
	}
	return n
}

func unmarshalPage(bs []byte) (page *core.Page, n int, err error) {
	var (
		id, documentID         string
		rawText, text, summary string
		number, count, n1      int
	)

	if n, err = unmarshalStrings(bs, &id, &documentID); err != nil {
		return nil, n, err
	}
	number, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	n1, err = unmarshalStrings(bs[n:], &rawText, &text, &summary)
	n += n1
	if err != nil {
		return nil, n, err
	}

	page = core.NewPage(documentID, number)
	page.ID = id
	page.RawText = rawText
	page.Text = text
	page.Overview = summary

	count, n1, err = varint.PositiveInt.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	if count < 0 || count > len(bs)-n {
		return nil, n, ErrTruncatedData
	}
	if count > 0 {
		page.SectionTitles = make([]string, count)
		ptrs := make([]*string, count)
		for i := range page.SectionTitles {
			ptrs[i] = &page.SectionTitles[i]
		}
		n1, err = unmarshalStrings(bs[n:], ptrs...)
		n += n1
		if err != nil {
			return nil, n, err
		}
	}

	hasImage, n1, err := ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	if hasImage {
		var mediaType string
		mediaType, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		var data []byte
		data, n1, err = unmarshalBytes(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		page.Image = &core.BinaryContent{Data: data, MediaType: core.MediaType(mediaType)}
	}

	hasEmbedding, n1, err := ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	if hasEmbedding {
		embedding := &core.EmbeddingVector{}
		n1, err = unmarshalStrings(bs[n:], &embedding.ID, &embedding.Model)
		n += n1
		if err != nil {
			return nil, n, err
		}
		embedding.Vector, n1, err = unmarshalVector(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		page.Embedding = embedding
	}
	return page, n, nil
}

func sizeStrings(values ...string) (size int) {
	for _, v := range values {
		size += ord.String.Size(v)
	}
	return size
}

func marshalStrings(bs []byte, values ...string) (n int) {
	for _, v := range values {
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte, dst ...*string) (n int, err error) {
	for _, d := range dst {
		var n1 int
		*d, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func sizeBytes(b []byte) int {
	return varint.PositiveInt.Size(len(b)) + len(b)
}

func marshalBytes(b, bs []byte) int {
	n := varint.PositiveInt.Marshal(len(b), bs)
	return n + copy(bs[n:], b)
}

func unmarshalBytes(bs []byte) ([]byte, int, error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length > len(bs)-n {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	out := make([]byte, length)
	copy(out, bs[n:n+length])
	return out, n + length, nil
}

func sizeVector(v []float32) int {
	size := varint.PositiveInt.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalVector(v []float32, bs []byte) int {
	n := varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) ([]float32, int, error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	// raw float32 values take four bytes each
	if length < 0 || length > (len(bs)-n)/4 {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	out := make([]float32, length)
	for i := range out {
		var n1 int
		out[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return out, n, nil
}
