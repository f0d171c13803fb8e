// Package reembed recomputes page embeddings for every stored document.
//
// It is used after switching embedding models, or to repair pages that were
// stored with the error sentinel because the provider was unavailable during
// ingestion. Documents are processed in batches; documents within a batch are
// embedded concurrently on a worker pool, pages of one document never are.
// Progress is checkpointed after each batch so an interrupted run resumes.
package reembed
