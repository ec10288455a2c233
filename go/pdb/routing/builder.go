/*
Copyright 2022 The Polypheny Project

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package routing

import (
	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
)

// BuilderState tracks the lifecycle of a PlanBuilder:
// OPEN -> EXTENDED* -> FROZEN.
type BuilderState int

const (
	// StateOpen is a builder that has not been extended yet.
	StateOpen BuilderState = iota
	// StateExtended is a builder holding a partial physical tree.
	StateExtended
	// StateFrozen is terminal; the built algebra is exposed through the
	// Plan.
	StateFrozen
)

var builderStateNames = map[BuilderState]string{
	StateOpen:     "OPEN",
	StateExtended: "EXTENDED",
	StateFrozen:   "FROZEN",
}

func (s BuilderState) String() string {
	if name, ok := builderStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// PlanBuilder accumulates one candidate physical tree during a routing
// traversal. Subtrees are pushed bottom-up; composite nodes pop their
// routed inputs and push themselves. Builders fork when a traversal
// explores alternatives.
type PlanBuilder struct {
	state    BuilderState
	stack    []algebra.Node
	physical map[algebra.NodeID]catalog.PlacementDistribution
}

// NewPlanBuilder returns an open, empty builder.
func NewPlanBuilder() *PlanBuilder {
	return &PlanBuilder{
		physical: make(map[algebra.NodeID]catalog.PlacementDistribution),
	}
}

// State returns the builder's lifecycle state.
func (b *PlanBuilder) State() BuilderState {
	return b.state
}

// StackSize returns the number of routed subtrees not yet consumed by a
// parent node.
func (b *PlanBuilder) StackSize() int {
	return len(b.stack)
}

// Push adds a routed subtree.
func (b *PlanBuilder) Push(n algebra.Node) error {
	if b.state == StateFrozen {
		return perrors.New(perrors.CodeInternal, "push on frozen plan builder")
	}
	b.state = StateExtended
	b.stack = append(b.stack, n)
	return nil
}

// Pop removes and returns the most recently pushed subtree.
func (b *PlanBuilder) Pop() (algebra.Node, error) {
	if b.state == StateFrozen {
		return nil, perrors.New(perrors.CodeInternal, "pop on frozen plan builder")
	}
	if len(b.stack) == 0 {
		return nil, perrors.New(perrors.CodeInternal, "pop on empty plan builder")
	}
	n := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return n, nil
}

// Peek returns the top subtree without removing it.
func (b *PlanBuilder) Peek() (algebra.Node, error) {
	if len(b.stack) == 0 {
		return nil, perrors.New(perrors.CodeInternal, "peek on empty plan builder")
	}
	return b.stack[len(b.stack)-1], nil
}

// ReplaceTop swaps the top subtree for n.
func (b *PlanBuilder) ReplaceTop(n algebra.Node) error {
	if b.state == StateFrozen {
		return perrors.New(perrors.CodeInternal, "replaceTop on frozen plan builder")
	}
	if len(b.stack) == 0 {
		return perrors.New(perrors.CodeInternal, "replaceTop on empty plan builder")
	}
	b.stack[len(b.stack)-1] = n
	return nil
}

// AddPhysicalInfo records the placement distribution chosen for a routed
// scan.
func (b *PlanBuilder) AddPhysicalInfo(node algebra.NodeID, d catalog.PlacementDistribution) {
	b.physical[node] = d
}

// PhysicalInfo returns the distribution recorded for a node, if any.
func (b *PlanBuilder) PhysicalInfo(node algebra.NodeID) (catalog.PlacementDistribution, bool) {
	d, ok := b.physical[node]
	return d, ok
}

// PhysicalInfos returns all recorded distributions. The map is shared;
// callers must not mutate it.
func (b *PlanBuilder) PhysicalInfos() map[algebra.NodeID]catalog.PlacementDistribution {
	return b.physical
}

// Fork returns a deep structural copy of the builder, so one alternative
// can be extended without disturbing another. A fork of a frozen builder
// is editable again.
func (b *PlanBuilder) Fork() *PlanBuilder {
	fork := &PlanBuilder{
		state:    b.state,
		stack:    make([]algebra.Node, len(b.stack)),
		physical: make(map[algebra.NodeID]catalog.PlacementDistribution, len(b.physical)),
	}
	if fork.state == StateFrozen {
		fork.state = StateExtended
	}
	for i, n := range b.stack {
		fork.stack[i] = algebra.CloneTree(n)
	}
	for id, d := range b.physical {
		copied := make(catalog.PlacementDistribution, len(d))
		for pid, placements := range d {
			copied[pid] = append([]catalog.ColumnPlacement(nil), placements...)
		}
		fork.physical[id] = copied
	}
	return fork
}

// Build freezes the builder and returns the finished plan. The stack must
// hold exactly the plan root.
func (b *PlanBuilder) Build() (*Plan, error) {
	if b.state == StateFrozen {
		return nil, perrors.New(perrors.CodeInternal, "build on frozen plan builder")
	}
	if len(b.stack) != 1 {
		return nil, perrors.Errorf(perrors.CodeInternal, "plan builder has %d roots, want exactly 1", len(b.stack))
	}
	b.state = StateFrozen
	return &Plan{
		Root:     b.stack[0],
		Physical: b.physical,
	}, nil
}
