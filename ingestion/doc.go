// Package ingestion implements the document processing pipeline.
//
// ProcessDocuments walks documents in order and dispatches each one to the
// handler registered for its media type:
//
//   - PDF: raw text per page from the extractor, then overviews, section titles
//     and embeddings.
//   - JPEG/PNG: a single page holding the image. Text, overviews and embeddings
//     are produced only when an OCR capability is configured.
//   - CSV: a single page whose raw text lists every non-empty cell as
//     "<header>: <value>", embedded right away.
//   - XLS/XLSX: one page per worksheet, created only once, then overviews and
//     embeddings.
//
// Re-running the pipeline over the same documents is safe: existing pages,
// raw text, overviews and valid embeddings are kept.
package ingestion
