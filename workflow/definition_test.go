package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docflow/core"
)

const reviewDefinition = `
name: Review
blocks:
  - name: Summary
    order: 1
    type: AiQuery
    documentClasses: [Any]
    rag:
      - type: UseTopics
  - name: Merge
    order: 2
    type: Merge
children:
  - name: Contracts
    order: 1
    blocks:
      - name: Clauses
        order: 1
        type: SimpleRag
        documentClasses: [Contract]
        rag:
          - type: UseAutoDetectedTableOfContents
            tableOfContentsModel: default
`

func TestParseDefinition_Build(t *testing.T) {
	def, err := ParseDefinition([]byte(reviewDefinition))
	require.NoError(t, err)

	wf, err := def.Build()
	require.NoError(t, err)

	assert.Equal(t, "Review", wf.Name)
	require.Len(t, wf.Blocks, 2)
	require.Len(t, wf.Children, 1)

	summary, err := wf.Block(1)
	require.NoError(t, err)
	assert.Equal(t, core.BlockTypeAiQuery, summary.Type)
	assert.Equal(t, []string{"Any"}, summary.SupportedDocumentClasses)
	assert.True(t, summary.HasRagType(core.RagTypeUseTopics))

	child := wf.Children[0]
	assert.Same(t, wf, child.Parent())
	clauses, err := child.Block(1)
	require.NoError(t, err)
	require.Len(t, clauses.RagSettings, 1)
	assert.Equal(t, "default", clauses.RagSettings[0].TableOfContentsModel)
	assert.Same(t, clauses, clauses.RagSettings[0].Block)

	assert.True(t, wf.UsesRagType(core.RagTypeUseAutoDetectedTableOfContents))
	assert.Len(t, wf.AllBlocks(), 3)
}

func TestParseDefinition_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"missing name", "blocks: []"},
		{"unknown field", "name: x\ncolor: blue"},
		{"bad block type", "name: x\nblocks:\n  - name: b\n    order: 1\n    type: Query"},
		{"missing block name", "name: x\nblocks:\n  - order: 1\n    type: Merge"},
		{"bad rag type", "name: x\nblocks:\n  - name: b\n    order: 1\n    type: AiQuery\n    rag:\n      - type: Everything"},
		{"negative order", "name: x\nblocks:\n  - name: b\n    order: -1\n    type: Merge"},
		{"blank class", "name: x\nblocks:\n  - name: b\n    order: 1\n    type: Merge\n    documentClasses: [\"\"]"},
		{"nested children", "name: x\nchildren:\n  - name: c\n    children: []"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestBuild_DuplicateBlockOrder(t *testing.T) {
	def := &Definition{
		Name: "dup",
		Blocks: []BlockDefinition{
			{Name: "a", Order: 1, Type: "AiQuery"},
			{Name: "b", Order: 1, Type: "Merge"},
		},
	}

	_, err := def.Build()
	assert.ErrorIs(t, err, ErrInvalidDefinition)
	assert.ErrorIs(t, err, core.ErrDuplicateBlockOrder)
}

func TestLoadDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.yaml")
	require.NoError(t, os.WriteFile(path, []byte(reviewDefinition), 0o600))

	def, err := LoadDefinition(path)
	require.NoError(t, err)
	assert.Equal(t, "Review", def.Name)

	_, err = LoadDefinition(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
