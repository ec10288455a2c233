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

package main

import (
	"github.com/tidwall/gjson"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/queryinfo"
)

// parseQuery reads a query description of the form
//
//	{"root": {"kind": "union", "inputs": [
//	    {"kind": "scan", "table": 1, "columns": [11], "partitions": [101]},
//	    {"kind": "scan", "table": 1, "columns": [11]}]}}
//
// Scans may carry the used columns and accessed partitions the analyzer
// would normally compute; omitted partitions mean the whole table. Unknown
// kinds become opaque nodes routed structurally.
func parseQuery(data []byte) (algebra.Node, *queryinfo.QueryInformation, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, perrors.New(perrors.CodeInvalidArgument, "query description is not valid JSON")
	}
	root := gjson.GetBytes(data, "root")
	if !root.Exists() {
		return nil, nil, perrors.New(perrors.CodeInvalidArgument, "query description has no root node")
	}

	info := queryinfo.New()
	node, err := parseNode(root, info)
	if err != nil {
		return nil, nil, err
	}
	return node, info, nil
}

func parseNode(v gjson.Result, info *queryinfo.QueryInformation) (algebra.Node, error) {
	kind := v.Get("kind").String()
	switch kind {
	case "scan":
		table := catalog.TableID(v.Get("table").Int())
		scan := algebra.NewScan(table)
		for _, col := range v.Get("columns").Array() {
			info.AddUsedColumns(table, catalog.ColumnID(col.Int()))
		}
		if partitions := v.Get("partitions"); partitions.Exists() {
			for _, p := range partitions.Array() {
				info.AddAccessedPartitions(scan.ID(), catalog.PartitionID(p.Int()))
			}
		}
		return scan, nil

	case "values":
		var rows [][]any
		for _, row := range v.Get("rows").Array() {
			var cells []any
			for _, cell := range row.Array() {
				cells = append(cells, cell.Value())
			}
			rows = append(rows, cells)
		}
		return algebra.NewValues(rows), nil

	case "union", "intersect", "except":
		inputs, err := parseInputs(v, info)
		if err != nil {
			return nil, err
		}
		if len(inputs) != 2 {
			return nil, perrors.Errorf(perrors.CodeInvalidArgument, "%s takes exactly 2 inputs, got %d", kind, len(inputs))
		}
		kinds := map[string]algebra.SetOpKind{
			"union":     algebra.Union,
			"intersect": algebra.Intersect,
			"except":    algebra.Except,
		}
		return algebra.NewSetOp(kinds[kind], inputs[0], inputs[1]), nil

	case "":
		return nil, perrors.New(perrors.CodeInvalidArgument, "node without a kind")

	default:
		inputs, err := parseInputs(v, info)
		if err != nil {
			return nil, err
		}
		return algebra.NewGeneric(kind, inputs...), nil
	}
}

func parseInputs(v gjson.Result, info *queryinfo.QueryInformation) ([]algebra.Node, error) {
	var inputs []algebra.Node
	for _, in := range v.Get("inputs").Array() {
		node, err := parseNode(in, info)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, node)
	}
	return inputs, nil
}
