// Package embedding computes page embedding vectors in fixed-size batches.
//
// Pages that already carry a valid embedding, or that have no overview, are
// never sent to the provider. Responses are matched back to pages by their
// position in the flattened candidate list. Pages left without a vector get
// the core.ErrorModel sentinel instead of an error.
package embedding
