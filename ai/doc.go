// Package ai defines the model-backed services consumed by the document
// pipeline and the workflow loader.
//
// Two capabilities are exposed:
//   - Embedder turns text into vectors for similarity search.
//   - Analyzer produces page overviews, cross-document topic summaries,
//     tables of contents and section titles.
//
// Provider groups both behind a single lifecycle. Concrete providers live in
// the openai subpackage; deterministic doubles for tests live in mock.
package ai
