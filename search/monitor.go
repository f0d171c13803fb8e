package search

import "github.com/poiesic/docflow/core"

// SearchMonitor provides hooks to observe the search process.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(matches []*core.PageMatch)
	VerbatimHit(match *core.PageMatch)
	Finish(results []*core.PageMatch)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                       {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.PageMatch) {}
func (n *noopMonitor) VerbatimHit(_ *core.PageMatch)        {}
func (n *noopMonitor) Finish(_ []*core.PageMatch)           {}
