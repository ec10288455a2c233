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

// Package queryinfo carries the per-query metadata the analyzer computes
// before routing: which columns each table contributes to the query, and
// which partitions each scan touches. The router only reads it.
package queryinfo

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
)

// QueryInformation is the precomputed view of one query.
type QueryInformation struct {
	usedColumns        map[catalog.TableID]mapset.Set[catalog.ColumnID]
	accessedPartitions map[algebra.NodeID]mapset.Set[catalog.PartitionID]
}

// New returns an empty QueryInformation.
func New() *QueryInformation {
	return &QueryInformation{
		usedColumns:        make(map[catalog.TableID]mapset.Set[catalog.ColumnID]),
		accessedPartitions: make(map[algebra.NodeID]mapset.Set[catalog.PartitionID]),
	}
}

// AddUsedColumns records columns the query reads from a table.
func (qi *QueryInformation) AddUsedColumns(table catalog.TableID, columns ...catalog.ColumnID) *QueryInformation {
	set, ok := qi.usedColumns[table]
	if !ok {
		set = mapset.NewThreadUnsafeSet[catalog.ColumnID]()
		qi.usedColumns[table] = set
	}
	for _, c := range columns {
		set.Add(c)
	}
	return qi
}

// AddAccessedPartitions records partitions a scan touches, typically the
// result of partition pruning against the scan's predicates.
func (qi *QueryInformation) AddAccessedPartitions(scan algebra.NodeID, partitions ...catalog.PartitionID) *QueryInformation {
	set, ok := qi.accessedPartitions[scan]
	if !ok {
		set = mapset.NewThreadUnsafeSet[catalog.PartitionID]()
		qi.accessedPartitions[scan] = set
	}
	for _, p := range partitions {
		set.Add(p)
	}
	return qi
}

// ColumnsUsed returns the columns the query reads from the table. An empty
// set means the analyzer recorded nothing; callers treat that as "all
// columns".
func (qi *QueryInformation) ColumnsUsed(table catalog.TableID) mapset.Set[catalog.ColumnID] {
	if set, ok := qi.usedColumns[table]; ok {
		return set
	}
	return mapset.NewThreadUnsafeSet[catalog.ColumnID]()
}

// PartitionsAccessed returns the partitions a scan touches. ok is false when
// the scan has no entry; callers treat that as "all partitions of the
// table".
func (qi *QueryInformation) PartitionsAccessed(scan algebra.NodeID) (mapset.Set[catalog.PartitionID], bool) {
	set, ok := qi.accessedPartitions[scan]
	return set, ok
}
