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

// Package algebra defines the relational algebra trees the router consumes
// and produces. Logical nodes reference catalog entities; physical nodes
// reference concrete placements on stores.
//
// Nodes form a DAG with no parent pointers. Rewrites happen by cloning a
// node with new inputs, never by mutating an existing tree.
package algebra

import (
	"fmt"
	"sync/atomic"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
)

// NodeID identifies a node within one planning session. Clones keep the ID
// of their original so per-node query information stays addressable.
type NodeID int64

var nextNodeID atomic.Int64

// AllocateID returns a fresh NodeID.
func AllocateID() NodeID {
	return NodeID(nextNodeID.Add(1))
}

// Node is one algebra operator. Implementations are value-like: Clone
// produces a copy wired to the given inputs, and no node mutates another.
type Node interface {
	ID() NodeID
	Inputs() []Node

	// Clone returns a copy of the node with the given inputs. The number
	// of inputs must match the node's arity.
	Clone(inputs []Node) Node
}

func checkArity(inputs []Node, want int) {
	if len(inputs) != want {
		panic(fmt.Sprintf("BUG: got the wrong number of inputs: got %d, expected %d", len(inputs), want))
	}
}

// SetOpKind enumerates the set operations.
type SetOpKind int

const (
	Union SetOpKind = iota
	Intersect
	Except
)

var setOpNames = map[SetOpKind]string{
	Union:     "UNION",
	Intersect: "INTERSECT",
	Except:    "EXCEPT",
}

func (k SetOpKind) String() string {
	if s, ok := setOpNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

type (
	// Scan reads a logical table. It is the only node the router rewrites
	// into physical form.
	Scan struct {
		NodeID NodeID
		Table  catalog.TableID
	}

	// Values produces inline literal rows.
	Values struct {
		NodeID NodeID
		Rows   [][]any
	}

	// SetOp combines exactly two inputs with a set operation.
	SetOp struct {
		NodeID NodeID
		Kind   SetOpKind
		Ins    []Node
	}

	// Generic is any node the router treats structurally: filters,
	// projections, joins, aggregates. The router only reroutes its
	// inputs.
	Generic struct {
		NodeID NodeID
		Kind   string
		Ins    []Node
	}

	// Modify is a DML node. It must never reach the DQL router; it exists
	// so the misuse precondition can be checked.
	Modify struct {
		NodeID NodeID
		Table  catalog.TableID
		Ins    []Node
	}

	// ConditionalExecute is a control-flow node. Like Modify, it is
	// rejected by the DQL router.
	ConditionalExecute struct {
		NodeID NodeID
		Ins    []Node
	}
)

// NewScan returns a Scan with a fresh NodeID.
func NewScan(table catalog.TableID) *Scan {
	return &Scan{NodeID: AllocateID(), Table: table}
}

func (s *Scan) ID() NodeID     { return s.NodeID }
func (s *Scan) Inputs() []Node { return nil }
func (s *Scan) Clone(inputs []Node) Node {
	checkArity(inputs, 0)
	c := *s
	return &c
}

// NewValues returns a Values node with a fresh NodeID.
func NewValues(rows [][]any) *Values {
	return &Values{NodeID: AllocateID(), Rows: rows}
}

func (v *Values) ID() NodeID     { return v.NodeID }
func (v *Values) Inputs() []Node { return nil }
func (v *Values) Clone(inputs []Node) Node {
	checkArity(inputs, 0)
	c := *v
	return &c
}

// NewSetOp returns a SetOp over the two inputs.
func NewSetOp(kind SetOpKind, left, right Node) *SetOp {
	return &SetOp{NodeID: AllocateID(), Kind: kind, Ins: []Node{left, right}}
}

func (s *SetOp) ID() NodeID     { return s.NodeID }
func (s *SetOp) Inputs() []Node { return s.Ins }
func (s *SetOp) Clone(inputs []Node) Node {
	checkArity(inputs, 2)
	return &SetOp{NodeID: s.NodeID, Kind: s.Kind, Ins: inputs}
}

// NewGeneric returns an opaque node over the given inputs.
func NewGeneric(kind string, inputs ...Node) *Generic {
	return &Generic{NodeID: AllocateID(), Kind: kind, Ins: inputs}
}

func (g *Generic) ID() NodeID     { return g.NodeID }
func (g *Generic) Inputs() []Node { return g.Ins }
func (g *Generic) Clone(inputs []Node) Node {
	checkArity(inputs, len(g.Ins))
	return &Generic{NodeID: g.NodeID, Kind: g.Kind, Ins: inputs}
}

// NewModify returns a Modify node.
func NewModify(table catalog.TableID, input Node) *Modify {
	return &Modify{NodeID: AllocateID(), Table: table, Ins: []Node{input}}
}

func (m *Modify) ID() NodeID     { return m.NodeID }
func (m *Modify) Inputs() []Node { return m.Ins }
func (m *Modify) Clone(inputs []Node) Node {
	checkArity(inputs, len(m.Ins))
	return &Modify{NodeID: m.NodeID, Table: m.Table, Ins: inputs}
}

// NewConditionalExecute returns a ConditionalExecute node.
func NewConditionalExecute(inputs ...Node) *ConditionalExecute {
	return &ConditionalExecute{NodeID: AllocateID(), Ins: inputs}
}

func (c *ConditionalExecute) ID() NodeID     { return c.NodeID }
func (c *ConditionalExecute) Inputs() []Node { return c.Ins }
func (c *ConditionalExecute) Clone(inputs []Node) Node {
	checkArity(inputs, len(c.Ins))
	return &ConditionalExecute{NodeID: c.NodeID, Ins: inputs}
}
