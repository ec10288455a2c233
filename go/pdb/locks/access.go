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

package locks

import (
	"sort"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/queryinfo"
)

// AccessedEntities derives the (table, partition) read set of the subtree
// rooted at node. A scan without a partition entry in the query information
// reads all partitions of its table. Entities are returned deduplicated in
// ascending (table, partition) order, which is the order locks must be
// acquired in.
func AccessedEntities(cat catalog.Catalog, node algebra.Node, info *queryinfo.QueryInformation) ([]EntityID, error) {
	seen := make(map[EntityID]bool)

	for _, scan := range algebra.CollectScans(node) {
		table, err := cat.GetTable(scan.Table)
		if err != nil {
			return nil, err
		}

		if accessed, ok := info.PartitionsAccessed(scan.ID()); ok {
			for _, pid := range accessed.ToSlice() {
				seen[EntityID{Table: table.ID, Partition: pid}] = true
			}
			continue
		}
		for _, pid := range table.Partition.PartitionIDs {
			seen[EntityID{Table: table.ID, Partition: pid}] = true
		}
	}

	entities := make([]EntityID, 0, len(seen))
	for e := range seen {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Table != entities[j].Table {
			return entities[i].Table < entities[j].Table
		}
		return entities[i].Partition < entities[j].Partition
	})
	return entities, nil
}
