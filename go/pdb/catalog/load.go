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
	"os"
	"sort"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
)

// The *File types describe the serialized form of a catalog snapshot,
// accepted as YAML or JSON.

type SnapshotFile struct {
	Tables []TableFile `json:"tables"`
}

type TableFile struct {
	ID               int64                    `json:"id"`
	Name             string                   `json:"name"`
	SupportsOutdated bool                     `json:"supportsOutdated,omitempty"`
	Partition        PartitionPropertyFile    `json:"partition"`
	Columns          []ColumnFile             `json:"columns"`
	Partitions       []PartitionFile          `json:"partitions"`
	ColumnPlacements []ColumnPlacementFile    `json:"columnPlacements"`
	PartPlacements   []PartitionPlacementFile `json:"partitionPlacements"`
}

type PartitionPropertyFile struct {
	Kind       string `json:"kind"`
	Column     int64  `json:"column,omitempty"`
	NumBuckets uint32 `json:"numBuckets,omitempty"`
}

type ColumnFile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type PartitionFile struct {
	ID     int64  `json:"id"`
	MinKey *int64 `json:"minKey,omitempty"`
	MaxKey *int64 `json:"maxKey,omitempty"`
	Bucket uint32 `json:"bucket,omitempty"`
}

type ColumnPlacementFile struct {
	Column       int64  `json:"column"`
	Store        int64  `json:"store"`
	PhysicalName string `json:"physicalName,omitempty"`
}

type PartitionPlacementFile struct {
	Partition  int64  `json:"partition"`
	Store      int64  `json:"store"`
	Role       string `json:"role"`
	DelayMs    int64  `json:"delayMs,omitempty"`
	VersionLag int64  `json:"versionLag,omitempty"`
	UpdateLag  int64  `json:"updateLag,omitempty"`
}

var partitionKindsByName = map[string]PartitionKind{
	"NONE":       PartitionNone,
	"RANGE":      PartitionRange,
	"HASH":       PartitionHash,
	"VERTICAL":   PartitionVertical,
	"REPLICATED": PartitionReplicated,
	"MIXED":      PartitionMixed,
}

var rolesByName = map[string]PlacementRole{
	"PRIMARY":     RolePrimary,
	"REFRESHABLE": RoleRefreshable,
	"OUTDATED":    RoleOutdated,
}

// LoadFile reads a snapshot description from a YAML or JSON file.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.Wrapf(err, "reading catalog file %s", path)
	}
	return Parse(data)
}

// Parse builds a Snapshot from serialized YAML or JSON.
func Parse(data []byte) (*Snapshot, error) {
	var file SnapshotFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, perrors.Wrap(err, "parsing catalog snapshot")
	}

	var (
		tables              []*Table
		columns             []*Column
		partitions          []*Partition
		columnPlacements    []ColumnPlacement
		partitionPlacements []PartitionPlacement
	)

	for _, tf := range file.Tables {
		kind, ok := partitionKindsByName[tf.Partition.Kind]
		if !ok {
			return nil, perrors.Errorf(perrors.CodeInvalidArgument, "table %s: unknown partition kind %q", tf.Name, tf.Partition.Kind)
		}

		table := &Table{
			ID:               TableID(tf.ID),
			Name:             tf.Name,
			SupportsOutdated: tf.SupportsOutdated,
			Partition: PartitionProperty{
				Kind:            kind,
				PartitionColumn: ColumnID(tf.Partition.Column),
				NumBuckets:      tf.Partition.NumBuckets,
			},
		}
		for _, cf := range tf.Columns {
			table.ColumnIDs = append(table.ColumnIDs, ColumnID(cf.ID))
			columns = append(columns, &Column{
				ID:    ColumnID(cf.ID),
				Table: table.ID,
				Name:  cf.Name,
				Type:  cf.Type,
			})
		}
		for _, pf := range tf.Partitions {
			table.Partition.PartitionIDs = append(table.Partition.PartitionIDs, PartitionID(pf.ID))
			partitions = append(partitions, &Partition{
				ID:     PartitionID(pf.ID),
				Table:  table.ID,
				MinKey: pf.MinKey,
				MaxKey: pf.MaxKey,
				Bucket: pf.Bucket,
			})
		}
		sort.Slice(table.Partition.PartitionIDs, func(i, j int) bool {
			return table.Partition.PartitionIDs[i] < table.Partition.PartitionIDs[j]
		})

		stores := map[StoreID]bool{}
		for _, cpf := range tf.ColumnPlacements {
			columnPlacements = append(columnPlacements, ColumnPlacement{
				Table:        table.ID,
				Column:       ColumnID(cpf.Column),
				Store:        StoreID(cpf.Store),
				PhysicalName: cpf.PhysicalName,
			})
			stores[StoreID(cpf.Store)] = true
		}
		for _, ppf := range tf.PartPlacements {
			role, ok := rolesByName[ppf.Role]
			if !ok {
				return nil, perrors.Errorf(perrors.CodeInvalidArgument, "table %s: unknown placement role %q", tf.Name, ppf.Role)
			}
			partitionPlacements = append(partitionPlacements, PartitionPlacement{
				Table:     table.ID,
				Partition: PartitionID(ppf.Partition),
				Store:     StoreID(ppf.Store),
				Role:      role,
				Staleness: StalenessMetric{
					Delay:      time.Duration(ppf.DelayMs) * time.Millisecond,
					VersionLag: ppf.VersionLag,
					UpdateLag:  ppf.UpdateLag,
				},
			})
			stores[StoreID(ppf.Store)] = true
		}

		for store := range stores {
			table.DataPlacements = append(table.DataPlacements, store)
		}
		sort.Slice(table.DataPlacements, func(i, j int) bool {
			return table.DataPlacements[i] < table.DataPlacements[j]
		})

		tables = append(tables, table)
	}

	return NewSnapshot(tables, columns, partitions, columnPlacements, partitionPlacements)
}
