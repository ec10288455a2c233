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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
)

func TestParseQuery(t *testing.T) {
	data := []byte(`{
		"root": {
			"kind": "Project",
			"inputs": [{
				"kind": "union",
				"inputs": [
					{"kind": "scan", "table": 1, "columns": [11], "partitions": [101]},
					{"kind": "scan", "table": 1, "columns": [11]}
				]
			}]
		}
	}`)

	root, info, err := parseQuery(data)
	require.NoError(t, err)

	project, ok := root.(*algebra.Generic)
	require.True(t, ok)
	assert.Equal(t, "Project", project.Kind)

	union, ok := project.Ins[0].(*algebra.SetOp)
	require.True(t, ok)
	assert.Equal(t, algebra.Union, union.Kind)

	leftScan := union.Ins[0].(*algebra.Scan)
	assert.True(t, info.ColumnsUsed(1).Contains(11))
	accessed, ok := info.PartitionsAccessed(leftScan.ID())
	require.True(t, ok)
	assert.True(t, accessed.Contains(101))

	rightScan := union.Ins[1].(*algebra.Scan)
	_, ok = info.PartitionsAccessed(rightScan.ID())
	assert.False(t, ok, "scan without partitions entry reads all partitions")
}

func TestParseQueryErrors(t *testing.T) {
	_, _, err := parseQuery([]byte(`not json`))
	require.Error(t, err)

	_, _, err = parseQuery([]byte(`{}`))
	require.Error(t, err)

	_, _, err = parseQuery([]byte(`{"root": {"kind": "union", "inputs": [{"kind": "scan", "table": 1}]}}`))
	require.Error(t, err)

	_, _, err = parseQuery([]byte(`{"root": {"table": 1}}`))
	require.Error(t, err)
}
