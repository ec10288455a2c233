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

package algebra

import (
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
)

type (
	// PhysicalScan reads the given columns of one partition placement on
	// one store.
	PhysicalScan struct {
		NodeID    NodeID
		Table     catalog.TableID
		Partition catalog.PartitionID
		Store     catalog.StoreID
		Columns   []catalog.ColumnID
	}

	// RowIDJoin joins two physical inputs of the same partition on the
	// implicit row identifier. It reassembles vertically split rows.
	RowIDJoin struct {
		NodeID NodeID
		Ins    []Node
	}

	// Concat unions its inputs in order. The router emits one input per
	// partition, in ascending partition ID order.
	Concat struct {
		NodeID NodeID
		Ins    []Node
	}

	// PhysicalValues is the executable form of Values.
	PhysicalValues struct {
		NodeID NodeID
		Rows   [][]any
	}
)

// NewPhysicalScan returns a PhysicalScan with a fresh NodeID.
func NewPhysicalScan(table catalog.TableID, partition catalog.PartitionID, store catalog.StoreID, columns []catalog.ColumnID) *PhysicalScan {
	return &PhysicalScan{
		NodeID:    AllocateID(),
		Table:     table,
		Partition: partition,
		Store:     store,
		Columns:   columns,
	}
}

func (p *PhysicalScan) ID() NodeID     { return p.NodeID }
func (p *PhysicalScan) Inputs() []Node { return nil }
func (p *PhysicalScan) Clone(inputs []Node) Node {
	checkArity(inputs, 0)
	c := *p
	c.Columns = append([]catalog.ColumnID(nil), p.Columns...)
	return &c
}

// NewRowIDJoin joins left and right on the implicit row identifier.
func NewRowIDJoin(left, right Node) *RowIDJoin {
	return &RowIDJoin{NodeID: AllocateID(), Ins: []Node{left, right}}
}

func (j *RowIDJoin) ID() NodeID     { return j.NodeID }
func (j *RowIDJoin) Inputs() []Node { return j.Ins }
func (j *RowIDJoin) Clone(inputs []Node) Node {
	checkArity(inputs, 2)
	return &RowIDJoin{NodeID: j.NodeID, Ins: inputs}
}

// NewConcat unions the inputs in order.
func NewConcat(inputs ...Node) *Concat {
	return &Concat{NodeID: AllocateID(), Ins: inputs}
}

func (c *Concat) ID() NodeID     { return c.NodeID }
func (c *Concat) Inputs() []Node { return c.Ins }
func (c *Concat) Clone(inputs []Node) Node {
	checkArity(inputs, len(c.Ins))
	return &Concat{NodeID: c.NodeID, Ins: inputs}
}

// NewPhysicalValues returns the physical form of a Values node.
func NewPhysicalValues(rows [][]any) *PhysicalValues {
	return &PhysicalValues{NodeID: AllocateID(), Rows: rows}
}

func (v *PhysicalValues) ID() NodeID     { return v.NodeID }
func (v *PhysicalValues) Inputs() []Node { return nil }
func (v *PhysicalValues) Clone(inputs []Node) Node {
	checkArity(inputs, 0)
	c := *v
	return &c
}
