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

package catalog

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
)

// Snapshot is an immutable in-memory Catalog. It is built once from the
// upstream catalog state and shared by all queries of a transaction.
type Snapshot struct {
	tables              map[TableID]*Table
	columns             map[ColumnID]*Column
	partitions          map[PartitionID]*Partition
	columnPlacements    map[TableID][]ColumnPlacement
	partitionPlacements map[PartitionID][]PartitionPlacement
}

var _ Catalog = (*Snapshot)(nil)

// NewSnapshot assembles a Snapshot and validates the placement invariants.
func NewSnapshot(
	tables []*Table,
	columns []*Column,
	partitions []*Partition,
	columnPlacements []ColumnPlacement,
	partitionPlacements []PartitionPlacement,
) (*Snapshot, error) {
	s := &Snapshot{
		tables:              make(map[TableID]*Table, len(tables)),
		columns:             make(map[ColumnID]*Column, len(columns)),
		partitions:          make(map[PartitionID]*Partition, len(partitions)),
		columnPlacements:    make(map[TableID][]ColumnPlacement),
		partitionPlacements: make(map[PartitionID][]PartitionPlacement),
	}
	for _, t := range tables {
		s.tables[t.ID] = t
	}
	for _, c := range columns {
		s.columns[c.ID] = c
	}
	for _, p := range partitions {
		s.partitions[p.ID] = p
	}
	for _, cp := range columnPlacements {
		s.columnPlacements[cp.Table] = append(s.columnPlacements[cp.Table], cp)
	}
	for _, pp := range partitionPlacements {
		s.partitionPlacements[pp.Partition] = append(s.partitionPlacements[pp.Partition], pp)
	}

	for _, placements := range s.columnPlacements {
		sort.SliceStable(placements, func(i, j int) bool {
			if placements[i].Store != placements[j].Store {
				return placements[i].Store < placements[j].Store
			}
			return placements[i].Column < placements[j].Column
		})
	}
	for _, placements := range s.partitionPlacements {
		sort.SliceStable(placements, func(i, j int) bool {
			return placements[i].Store < placements[j].Store
		})
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// validate enforces the catalog invariants the router relies on: every
// partition has exactly one primary placement, and every (column, partition)
// pair is covered by a column placement on some store that also places the
// partition.
func (s *Snapshot) validate() error {
	for _, t := range s.tables {
		if len(t.Partition.PartitionIDs) == 0 {
			return perrors.Errorf(perrors.CodeInternal, "table %d has no partitions", t.ID)
		}
		for _, pid := range t.Partition.PartitionIDs {
			if _, ok := s.partitions[pid]; !ok {
				return perrors.Errorf(perrors.CodeInternal, "table %d references unknown partition %d", t.ID, pid)
			}
			placements := s.partitionPlacements[pid]
			primaries := 0
			stores := mapset.NewThreadUnsafeSet[StoreID]()
			for _, pp := range placements {
				if pp.Role == RolePrimary {
					primaries++
				}
				stores.Add(pp.Store)
			}
			if primaries != 1 {
				return perrors.Errorf(perrors.CodeInternal, "partition %d of table %d has %d primary placements, want exactly 1", pid, t.ID, primaries)
			}

			for _, col := range t.ColumnIDs {
				covered := false
				for _, cp := range s.columnPlacements[t.ID] {
					if cp.Column == col && stores.Contains(cp.Store) {
						covered = true
						break
					}
				}
				if !covered {
					return perrors.Errorf(perrors.CodeInternal, "column %d of table %d has no placement covering partition %d", col, t.ID, pid)
				}
			}
		}
	}
	return nil
}

// GetTable implements Catalog.
func (s *Snapshot) GetTable(id TableID) (*Table, error) {
	t, ok := s.tables[id]
	if !ok {
		return nil, perrors.Errorf(perrors.CodeNotFound, "no table with id %d", id)
	}
	return t, nil
}

// GetColumn implements Catalog.
func (s *Snapshot) GetColumn(id ColumnID) (*Column, error) {
	c, ok := s.columns[id]
	if !ok {
		return nil, perrors.Errorf(perrors.CodeNotFound, "no column with id %d", id)
	}
	return c, nil
}

// PlacementsOf implements Catalog.
func (s *Snapshot) PlacementsOf(table TableID) ([]ColumnPlacement, error) {
	if _, ok := s.tables[table]; !ok {
		return nil, perrors.Errorf(perrors.CodeNotFound, "no table with id %d", table)
	}
	return s.columnPlacements[table], nil
}

// PartitionsOf implements Catalog.
func (s *Snapshot) PartitionsOf(table TableID) ([]*Partition, error) {
	t, ok := s.tables[table]
	if !ok {
		return nil, perrors.Errorf(perrors.CodeNotFound, "no table with id %d", table)
	}
	partitions := make([]*Partition, 0, len(t.Partition.PartitionIDs))
	for _, pid := range t.Partition.PartitionIDs {
		p, ok := s.partitions[pid]
		if !ok {
			return nil, perrors.Errorf(perrors.CodeInternal, "table %d references unknown partition %d", table, pid)
		}
		partitions = append(partitions, p)
	}
	return partitions, nil
}

// PartitionPlacementsOf implements Catalog.
func (s *Snapshot) PartitionPlacementsOf(partition PartitionID) ([]PartitionPlacement, error) {
	if _, ok := s.partitions[partition]; !ok {
		return nil, perrors.Errorf(perrors.CodeNotFound, "no partition with id %d", partition)
	}
	return s.partitionPlacements[partition], nil
}

// SupportsOutdated implements Catalog.
func (s *Snapshot) SupportsOutdated(table TableID) (bool, error) {
	t, ok := s.tables[table]
	if !ok {
		return false, perrors.Errorf(perrors.CodeNotFound, "no table with id %d", table)
	}
	return t.SupportsOutdated, nil
}
