// Package mock provides deterministic ai.Embedder, ai.Analyzer and ai.Provider
// implementations for tests. Every method can be overridden through a function field.
package mock
