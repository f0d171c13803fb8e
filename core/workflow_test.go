package core

import (
	"errors"
	"testing"
)

func TestAcceptsClass(t *testing.T) {
	tests := []struct {
		name    string
		classes []string
		class   string
		want    bool
	}{
		{name: "empty list accepts all", classes: nil, class: "X", want: true},
		{name: "any accepts all", classes: []string{"Any"}, class: "X", want: true},
		{name: "listed class", classes: []string{"X", "Y"}, class: "Y", want: true},
		{name: "unlisted class", classes: []string{"X"}, class: "Y", want: false},
		{name: "none rejects all", classes: []string{"None"}, class: "X", want: false},
		{name: "none beats any", classes: []string{"Any", "None"}, class: "X", want: false},
		{name: "none beats listed", classes: []string{"X", "None"}, class: "X", want: false},
		{name: "empty class against list", classes: []string{"X"}, class: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Block{SupportedDocumentClasses: tt.classes}
			if got := b.AcceptsClass(tt.class); got != tt.want {
				t.Errorf("AcceptsClass(%q) = %v, want %v", tt.class, got, tt.want)
			}
			info := NewDocumentInfo(nil, tt.class)
			if got := info.CanBeProcessedForBlock(b); got != tt.want {
				t.Errorf("CanBeProcessedForBlock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldUseDocuments(t *testing.T) {
	tests := map[BlockType]bool{
		BlockTypeAiQuery:   true,
		BlockTypeSimpleRag: true,
		BlockTypeMerge:     false,
	}
	for bt, want := range tests {
		b := &Block{Type: bt}
		if got := b.ShouldUseDocuments(); got != want {
			t.Errorf("ShouldUseDocuments(%s) = %v, want %v", bt, got, want)
		}
	}
}

func TestWorkflowBlockLookup(t *testing.T) {
	wf := NewWorkflow("root")
	wf.AddBlock("first", 1, BlockTypeAiQuery)
	second := wf.AddBlock("second", 2, BlockTypeSimpleRag)

	got, err := wf.Block(2)
	if err != nil {
		t.Fatalf("Block(2) error = %v", err)
	}
	if got != second {
		t.Error("Block(2) returned the wrong block")
	}
	if got.Workflow() != wf {
		t.Error("block owner not set")
	}

	_, err = wf.Block(7)
	if !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("Block(7) error = %v, want ErrBlockNotFound", err)
	}
}

func TestWorkflowNesting(t *testing.T) {
	root := NewWorkflow("root")
	child, err := root.NewChild("child", 1)
	if err != nil {
		t.Fatalf("NewChild() error = %v", err)
	}
	if child.Parent() != root || child.TopLevel() != root {
		t.Error("parent links not set")
	}

	if _, err := child.NewChild("grandchild", 1); !errors.Is(err, ErrWorkflowTooDeep) {
		t.Errorf("nested NewChild() error = %v, want ErrWorkflowTooDeep", err)
	}

	deep := NewWorkflow("deep")
	_, _ = deep.NewChild("inner", 1)
	if err := root.AddChild(deep); !errors.Is(err, ErrWorkflowTooDeep) {
		t.Errorf("AddChild(with children) error = %v, want ErrWorkflowTooDeep", err)
	}
}

func TestAllBlocks(t *testing.T) {
	root := NewWorkflow("root")
	r1 := root.AddBlock("r1", 1, BlockTypeAiQuery)
	c1, _ := root.NewChild("c1", 1)
	b1 := c1.AddBlock("b1", 1, BlockTypeSimpleRag)
	c2, _ := root.NewChild("c2", 2)
	b2 := c2.AddBlock("b2", 1, BlockTypeMerge)

	for _, wf := range []*Workflow{root, c1, c2} {
		blocks := wf.AllBlocks()
		want := []*Block{r1, b1, b2}
		if len(blocks) != len(want) {
			t.Fatalf("AllBlocks() from %s returned %d blocks, want %d", wf.Name, len(blocks), len(want))
		}
		for i := range want {
			if blocks[i] != want[i] {
				t.Errorf("AllBlocks()[%d] = %s, want %s", i, blocks[i].Name, want[i].Name)
			}
		}
	}
}

func TestUsesRagType(t *testing.T) {
	root := NewWorkflow("root")
	child, _ := root.NewChild("child", 1)
	child.AddBlock("b", 1, BlockTypeSimpleRag).AddRagSettings(RagTypeUseTopics, "")

	if !root.UsesRagType(RagTypeUseTopics) {
		t.Error("root should see topics settings of its child")
	}
	if root.UsesRagType(RagTypeUseAutoDetectedTableOfContents) {
		t.Error("unexpected table of contents settings")
	}
}

func TestSetTopics(t *testing.T) {
	wf := NewWorkflow("root")
	if wf.HasTopics() {
		t.Fatal("new workflow should have no topics")
	}

	wf.SetTopics("")
	if !wf.HasTopics() || wf.AllPagesTopics != "" {
		t.Errorf("empty summary should count as generated, got %q", wf.AllPagesTopics)
	}
}

func TestValidateWorkflow(t *testing.T) {
	valid := NewWorkflow("ok")
	valid.AddBlock("a", 1, BlockTypeAiQuery).AddRagSettings(RagTypeWholeDocument, "")
	if err := ValidateWorkflow(valid); err != nil {
		t.Errorf("ValidateWorkflow(valid) = %v", err)
	}

	dup := NewWorkflow("dup")
	dup.AddBlock("a", 1, BlockTypeAiQuery)
	dup.AddBlock("b", 1, BlockTypeMerge)
	if err := ValidateWorkflow(dup); !errors.Is(err, ErrDuplicateBlockOrder) {
		t.Errorf("ValidateWorkflow(dup) = %v, want ErrDuplicateBlockOrder", err)
	}

	badType := NewWorkflow("bad")
	badType.AddBlock("a", 1, BlockType("Unknown"))
	if err := ValidateWorkflow(badType); !errors.Is(err, ErrInvalidBlockType) {
		t.Errorf("ValidateWorkflow(badType) = %v, want ErrInvalidBlockType", err)
	}

	badRag := NewWorkflow("rag")
	badRag.AddBlock("a", 1, BlockTypeSimpleRag).AddRagSettings(RagType("Bogus"), "")
	if err := ValidateWorkflow(badRag); !errors.Is(err, ErrInvalidRagType) {
		t.Errorf("ValidateWorkflow(badRag) = %v, want ErrInvalidRagType", err)
	}

	orphan := NewWorkflow("orphan")
	orphan.AddBlock("a", 1, BlockTypeAiQuery).AddRagSettings(RagTypeWholeDocument, "").Block = nil
	if err := ValidateWorkflow(orphan); !errors.Is(err, ErrInvalidWorkflow) {
		t.Errorf("ValidateWorkflow(orphan) = %v, want ErrInvalidWorkflow", err)
	}

	if err := ValidateWorkflow(nil); !errors.Is(err, ErrInvalidWorkflow) {
		t.Errorf("ValidateWorkflow(nil) = %v, want ErrInvalidWorkflow", err)
	}
}

func TestValidateDocument(t *testing.T) {
	doc := NewDocument(MediaTypePDF, nil)
	doc.GetOrCreatePage(1)
	doc.GetOrCreatePage(2)
	if err := ValidateDocument(doc); err != nil {
		t.Errorf("ValidateDocument() = %v", err)
	}

	doc.Pages = append(doc.Pages, NewPage(doc.ID, 2))
	if err := ValidateDocument(doc); !errors.Is(err, ErrDuplicatePageNumber) {
		t.Errorf("ValidateDocument(dup) = %v, want ErrDuplicatePageNumber", err)
	}

	bad := NewDocument(MediaType("text/plain"), nil)
	if err := ValidateDocument(bad); !errors.Is(err, ErrUnsupportedMediaType) {
		t.Errorf("ValidateDocument(text/plain) = %v, want ErrUnsupportedMediaType", err)
	}

	zero := NewDocument(MediaTypePNG, nil)
	zero.Pages = []*Page{NewPage(zero.ID, 0)}
	if err := ValidateDocument(zero); !errors.Is(err, ErrInvalidPageNumber) {
		t.Errorf("ValidateDocument(page 0) = %v, want ErrInvalidPageNumber", err)
	}
}
