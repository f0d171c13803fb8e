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

package core

import (
	"slices"
	"strings"
)

// ErrorModel is the model tag recorded on an embedding whose computation failed
// or returned no vector.
const ErrorModel = "ERROR"

// File is the raw artifact a Document was created from.
// Bytes are treated as read-only once the File is constructed.
type File struct {
	ID    string
	Name  string
	Bytes []byte
}

// NewFile creates a File with a fresh identifier.
func NewFile(name string, data []byte) *File {
	return &File{
		ID:    NewID(),
		Name:  name,
		Bytes: data,
	}
}

// Checksum returns the content checksum of the file bytes.
func (f *File) Checksum() string {
	return Checksum(f.Bytes)
}

// BinaryContent is an opaque payload tagged with its media type.
type BinaryContent struct {
	Data      []byte
	MediaType MediaType
}

// EmbeddingVector is the semantic vector computed for a page.
// Model is either the embedding provider's model name or ErrorModel.
type EmbeddingVector struct {
	ID     string
	Model  string
	Vector []float32
}

// NewEmbeddingVector creates an EmbeddingVector with a fresh identifier.
func NewEmbeddingVector(model string, vector []float32) *EmbeddingVector {
	return &EmbeddingVector{
		ID:     NewID(),
		Model:  model,
		Vector: vector,
	}
}

// IsError reports whether the vector marks a failed computation.
func (e *EmbeddingVector) IsError() bool {
	return e.Model == ErrorModel
}

// Page is a single unit of a Document: a PDF page, a worksheet, an image or a CSV body.
// Empty strings mean "not set".
type Page struct {
	ID         string
	DocumentID string // non-owning reference to the parent Document
	number     int

	RawText       string // text as extracted from the source
	Text          string // post-processed text
	Overview      string // natural-language summary of the page
	SectionTitles []string
	Image         *BinaryContent
	Embedding     *EmbeddingVector
}

// NewPage creates a page with the given 1-based number. The number cannot be changed later.
func NewPage(documentID string, number int) *Page {
	return &Page{
		ID:         NewID(),
		DocumentID: documentID,
		number:     number,
	}
}

// Number returns the 1-based page number.
func (p *Page) Number() int {
	return p.number
}

// HasValidEmbedding reports whether the page carries a real (non-sentinel) embedding.
func (p *Page) HasValidEmbedding() bool {
	return p.Embedding != nil && !p.Embedding.IsError()
}

// HasOverview reports whether the page has a non-blank overview.
func (p *Page) HasOverview() bool {
	return strings.TrimSpace(p.Overview) != ""
}

// Content returns the best available text for the page: post-processed text when
// present, raw text otherwise.
func (p *Page) Content() string {
	if p.Text != "" {
		return p.Text
	}
	return p.RawText
}

// Document is an ingested artifact and its pages.
// Pages are kept sorted by page number and page numbers are unique.
type Document struct {
	ID              string
	Name            string
	MediaType       MediaType
	File            *File
	Pages           []*Page
	TableOfContents string
}

// NewDocument creates a Document for the given file.
// The document takes its name from the file when one is provided.
func NewDocument(mediaType MediaType, file *File) *Document {
	doc := &Document{
		ID:        NewID(),
		MediaType: mediaType,
		File:      file,
	}
	if file != nil {
		doc.Name = file.Name
	}
	return doc
}

// Page returns the page with the given number, or nil.
func (d *Document) Page(number int) *Page {
	i, found := d.pageIndex(number)
	if !found {
		return nil
	}
	return d.Pages[i]
}

// GetOrCreatePage returns the page with the given number, creating and inserting it
// in page-number order when it does not exist yet.
func (d *Document) GetOrCreatePage(number int) *Page {
	i, found := d.pageIndex(number)
	if found {
		return d.Pages[i]
	}
	page := NewPage(d.ID, number)
	d.Pages = slices.Insert(d.Pages, i, page)
	return page
}

func (d *Document) pageIndex(number int) (int, bool) {
	return slices.BinarySearchFunc(d.Pages, number, func(p *Page, n int) int {
		return p.number - n
	})
}

// DocumentInfo pairs a processed Document with the document class asserted by the caller.
// It is only used while loading context into a workflow.
type DocumentInfo struct {
	ID            string
	DocumentID    string
	Document      *Document
	DocumentClass string
}

// NewDocumentInfo creates a DocumentInfo for the given document and class.
func NewDocumentInfo(doc *Document, class string) *DocumentInfo {
	info := &DocumentInfo{
		ID:            NewID(),
		Document:      doc,
		DocumentClass: class,
	}
	if doc != nil {
		info.DocumentID = doc.ID
	}
	return info
}

// Key returns the identity of the wrapped document, falling back to DocumentID when
// the document itself is missing.
func (di *DocumentInfo) Key() string {
	if di.Document != nil {
		return di.Document.ID
	}
	return di.DocumentID
}

// CanBeProcessedForBlock reports whether the asserted class is accepted by the block.
func (di *DocumentInfo) CanBeProcessedForBlock(block *Block) bool {
	return block.AcceptsClass(di.DocumentClass)
}

// PageMatch is a page returned by a similarity search.
type PageMatch struct {
	DocumentID   string
	DocumentName string
	Page         *Page
	Score        float32
}
