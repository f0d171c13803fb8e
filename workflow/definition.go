// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package workflow

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/docflow/core"
)

// Definition is the YAML description of a root workflow and its children.
//
//	name: Review
//	blocks:
//	  - name: Summary
//	    order: 1
//	    type: AiQuery
//	    documentClasses: [Any]
//	    rag:
//	      - type: UseTopics
//	children:
//	  - name: Contracts
//	    order: 1
//	    blocks:
//	      - name: Clauses
//	        order: 1
//	        type: SimpleRag
//	        rag:
//	          - type: UseAutoDetectedTableOfContents
//	            tableOfContentsModel: default
type Definition struct {
	Name     string            `yaml:"name" validate:"required"`
	Blocks   []BlockDefinition `yaml:"blocks" validate:"dive"`
	Children []ChildDefinition `yaml:"children" validate:"dive"`
}

// ChildDefinition describes a child workflow. Children cannot nest further.
type ChildDefinition struct {
	Name   string            `yaml:"name" validate:"required"`
	Order  int               `yaml:"order" validate:"gte=0"`
	Blocks []BlockDefinition `yaml:"blocks" validate:"dive"`
}

// BlockDefinition describes a block.
type BlockDefinition struct {
	Name            string          `yaml:"name" validate:"required"`
	Order           int             `yaml:"order" validate:"gte=0"`
	Type            string          `yaml:"type" validate:"required,oneof=AiQuery SimpleRag Merge"`
	DocumentClasses []string        `yaml:"documentClasses" validate:"dive,required"`
	Rag             []RagDefinition `yaml:"rag" validate:"dive"`
}

// RagDefinition describes RAG settings of a block.
type RagDefinition struct {
	Type                 string `yaml:"type" validate:"required,oneof=WholeDocument UseTopics UseAutoDetectedTableOfContents"`
	TableOfContentsModel string `yaml:"tableOfContentsModel"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseDefinition decodes and validates a YAML workflow definition.
// Unknown fields are rejected.
func ParseDefinition(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinition reads and parses a workflow definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDefinition(data)
}

// Validate checks field constraints.
func (d *Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return nil
}

// Build creates the workflow hierarchy described by d and checks its structure.
func (d *Definition) Build() (*core.Workflow, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	root := core.NewWorkflow(d.Name)
	addBlocks(root, d.Blocks)

	for _, cd := range d.Children {
		child, err := root.NewChild(cd.Name, cd.Order)
		if err != nil {
			return nil, err
		}
		addBlocks(child, cd.Blocks)
	}

	if err := core.ValidateWorkflow(root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return root, nil
}

func addBlocks(wf *core.Workflow, defs []BlockDefinition) {
	for _, bd := range defs {
		block := wf.AddBlock(bd.Name, bd.Order, core.BlockType(bd.Type))
		block.SupportedDocumentClasses = append([]string(nil), bd.DocumentClasses...)
		for _, rd := range bd.Rag {
			block.AddRagSettings(core.RagType(rd.Type), rd.TableOfContentsModel)
		}
	}
}
