// Package search finds stored pages relevant to a free-text query.
//
// The Searcher embeds the query, collects pages whose embedding is close to it
// and boosts pages whose text contains every significant query word. A
// SearchMonitor can observe each stage.
package search
