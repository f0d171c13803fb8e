// Package workflow loads processed documents into the blocks of a workflow.
//
// LoadContext clears the documents of every block, aggregates the pages of each
// document into the workflow once, and attaches each document to the blocks
// that accept its class and carry RAG settings. When any block asks for topics
// the workflow's topic summary is generated once; when any child block asks for
// an auto-detected table of contents, one is generated for every eligible
// document.
//
// Workflows can be described in YAML and turned into a core.Workflow with
// ParseDefinition and Definition.Build.
package workflow
