package workflow

import "errors"

var (
	// ErrAnalyzerRequired is returned when no analyzer is provided.
	ErrAnalyzerRequired = errors.New("analyzer required")

	// ErrWorkflowRequired is returned when LoadContext is called without a workflow.
	ErrWorkflowRequired = errors.New("workflow required")

	// ErrRagSettingsWithoutBlock is returned when table of contents settings have no owning block.
	ErrRagSettingsWithoutBlock = errors.New("rag settings have no owning block")

	// ErrInvalidDefinition is returned when a workflow definition fails to parse or validate.
	ErrInvalidDefinition = errors.New("invalid workflow definition")
)
