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
	"fmt"
	"strings"
)

// VisitTopDown visits root and its descendants breadth-first. The visitor
// aborts the walk by returning an error.
func VisitTopDown(root Node, visitor func(Node) error) error {
	queue := []Node{root}
	for len(queue) > 0 {
		this := queue[0]
		queue = append(queue[1:], this.Inputs()...)
		if err := visitor(this); err != nil {
			return err
		}
	}
	return nil
}

// CollectScans returns all logical Scan nodes under root in visit order.
func CollectScans(root Node) []*Scan {
	var scans []*Scan
	_ = VisitTopDown(root, func(n Node) error {
		if scan, ok := n.(*Scan); ok {
			scans = append(scans, scan)
		}
		return nil
	})
	return scans
}

// CloneTree deep-copies a node and all its descendants.
func CloneTree(n Node) Node {
	inputs := n.Inputs()
	clones := make([]Node, len(inputs))
	for i, input := range inputs {
		clones[i] = CloneTree(input)
	}
	return n.Clone(clones)
}

// Format renders a tree as an indented multi-line string for logs and the
// CLI.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n, 0)
	return b.String()
}

func format(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(describe(n))
	b.WriteByte('\n')
	for _, input := range n.Inputs() {
		format(b, input, depth+1)
	}
}

func describe(n Node) string {
	switch node := n.(type) {
	case *Scan:
		return fmt.Sprintf("Scan(table=%d)", node.Table)
	case *Values:
		return fmt.Sprintf("Values(%d rows)", len(node.Rows))
	case *SetOp:
		return node.Kind.String()
	case *Generic:
		return node.Kind
	case *Modify:
		return fmt.Sprintf("Modify(table=%d)", node.Table)
	case *ConditionalExecute:
		return "ConditionalExecute"
	case *PhysicalScan:
		return fmt.Sprintf("PhysicalScan(table=%d partition=%d store=%d columns=%v)", node.Table, node.Partition, node.Store, node.Columns)
	case *RowIDJoin:
		return "RowIDJoin"
	case *Concat:
		return "Concat"
	case *PhysicalValues:
		return fmt.Sprintf("PhysicalValues(%d rows)", len(node.Rows))
	default:
		return fmt.Sprintf("%T", n)
	}
}
