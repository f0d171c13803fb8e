package mock

import "github.com/poiesic/docflow/ai"

// MockProvider bundles a MockEmbedder and a MockAnalyzer.
type MockProvider struct {
	embedder *MockEmbedder
	analyzer *MockAnalyzer
}

// NewMockProvider creates a provider with default mocks.
func NewMockProvider() *MockProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockAnalyzer())
}

// NewMockProviderWithServices creates a provider around the given mocks.
func NewMockProviderWithServices(embedder *MockEmbedder, analyzer *MockAnalyzer) *MockProvider {
	return &MockProvider{
		embedder: embedder,
		analyzer: analyzer,
	}
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) Analyzer() ai.Analyzer {
	return p.analyzer
}

func (p *MockProvider) Close() error {
	return nil
}

// MockEmbedder returns the concrete embedder for assertions.
func (p *MockProvider) MockEmbedder() *MockEmbedder {
	return p.embedder
}

// MockAnalyzer returns the concrete analyzer for assertions.
func (p *MockProvider) MockAnalyzer() *MockAnalyzer {
	return p.analyzer
}

var _ ai.Provider = (*MockProvider)(nil)
