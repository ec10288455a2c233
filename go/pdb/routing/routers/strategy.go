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

package routers

import (
	"sort"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/queryinfo"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/txn"
)

// Strategy chooses column placement distributions for one scan. Each
// handler extends or forks the given builders and returns the surviving
// list. Returning an empty list without an error is a cooperative abort:
// the strategy cannot serve the scan and the router declines the query.
//
// Handlers must be deterministic: identical inputs produce builders in a
// stable order.
type Strategy interface {
	Name() string

	// HandleHorizontal routes a scan of a partition-split table.
	HandleHorizontal(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error)

	// HandleVerticalOrReplicated routes a scan of a table with multiple
	// data placements: column splits, replicas, or both.
	HandleVerticalOrReplicated(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error)

	// HandleNone routes a scan of a single-placement table.
	HandleNone(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error)
}

// allowedPartitionStores returns, per needed partition, the stores holding
// a readable placement of it: the primary first, then refreshables in
// ascending store order. Outdated placements are never readable on the
// locking path.
func (b *BaseRouter) allowedPartitionStores(partitions []catalog.PartitionID) (map[catalog.PartitionID][]catalog.StoreID, error) {
	out := make(map[catalog.PartitionID][]catalog.StoreID, len(partitions))
	for _, pid := range partitions {
		placements, err := b.cat.PartitionPlacementsOf(pid)
		if err != nil {
			return nil, err
		}
		var primary catalog.StoreID
		var secondaries []catalog.StoreID
		for _, pp := range placements {
			switch pp.Role {
			case catalog.RolePrimary:
				primary = pp.Store
			case catalog.RoleRefreshable:
				secondaries = append(secondaries, pp.Store)
			}
		}
		sort.Slice(secondaries, func(i, j int) bool { return secondaries[i] < secondaries[j] })
		out[pid] = append([]catalog.StoreID{primary}, secondaries...)
	}
	return out, nil
}

// singleStoreCovers returns the stores that can serve the whole scan alone:
// a readable placement of every needed partition plus a placement of every
// needed column. Ascending store order.
func singleStoreCovers(
	byStore map[catalog.StoreID]map[catalog.ColumnID]catalog.ColumnPlacement,
	partitionStores map[catalog.PartitionID][]catalog.StoreID,
	partitions []catalog.PartitionID,
	columns []catalog.ColumnID,
) []catalog.StoreID {
	var covers []catalog.StoreID
	for store, placed := range byStore {
		all := true
		for _, c := range columns {
			if _, ok := placed[c]; !ok {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		for _, pid := range partitions {
			found := false
			for _, s := range partitionStores[pid] {
				if s == store {
					found = true
					break
				}
			}
			if !found {
				all = false
				break
			}
		}
		if all {
			covers = append(covers, store)
		}
	}
	sort.Slice(covers, func(i, j int) bool { return covers[i] < covers[j] })
	return covers
}

// distributionOnStore reads every needed partition and column from one
// store.
func distributionOnStore(
	byStore map[catalog.StoreID]map[catalog.ColumnID]catalog.ColumnPlacement,
	partitions []catalog.PartitionID,
	columns []catalog.ColumnID,
	store catalog.StoreID,
) catalog.PlacementDistribution {
	d := make(catalog.PlacementDistribution, len(partitions))
	for _, pid := range partitions {
		placements := make([]catalog.ColumnPlacement, 0, len(columns))
		for _, c := range columns {
			placements = append(placements, byStore[store][c])
		}
		d[pid] = placements
	}
	return d
}

// compositeDistribution assembles a distribution partition by partition,
// preferring the stores in the order partitionStores lists them and pulling
// missing columns from later stores. It fails when the catalog cannot cover
// a column, which violates the placement invariant.
func compositeDistribution(
	byStore map[catalog.StoreID]map[catalog.ColumnID]catalog.ColumnPlacement,
	partitionStores map[catalog.PartitionID][]catalog.StoreID,
	partitions []catalog.PartitionID,
	columns []catalog.ColumnID,
	table *catalog.Table,
) (catalog.PlacementDistribution, error) {
	d := make(catalog.PlacementDistribution, len(partitions))
	for _, pid := range partitions {
		uncovered := make(map[catalog.ColumnID]bool, len(columns))
		for _, c := range columns {
			uncovered[c] = true
		}
		var placements []catalog.ColumnPlacement
		for _, store := range partitionStores[pid] {
			if len(uncovered) == 0 {
				break
			}
			for _, c := range columns {
				if !uncovered[c] {
					continue
				}
				if cp, ok := byStore[store][c]; ok {
					placements = append(placements, cp)
					delete(uncovered, c)
				}
			}
		}
		if len(uncovered) > 0 {
			return nil, perrors.Errorf(perrors.CodeInternal, "no placement combination covers all columns of table %d for partition %d", table.ID, pid)
		}
		d[pid] = placements
	}
	return d, nil
}

// emitDistributions pushes the joined scan of each distribution into the
// builders. A single distribution extends the builders in place; multiple
// distributions fork one builder per (distribution, builder) pair, in
// distribution order.
func (b *BaseRouter) emitDistributions(
	scan *algebra.Scan,
	table *catalog.Table,
	transaction *txn.Transaction,
	builders []*routing.PlanBuilder,
	distributions []catalog.PlacementDistribution,
) ([]*routing.PlanBuilder, error) {
	if len(distributions) == 1 {
		for _, builder := range builders {
			subtree, err := b.buildJoinedScan(transaction, table, distributions[0])
			if err != nil {
				return nil, err
			}
			builder.AddPhysicalInfo(scan.ID(), distributions[0])
			if err := builder.Push(subtree); err != nil {
				return nil, err
			}
		}
		return builders, nil
	}

	var out []*routing.PlanBuilder
	for _, d := range distributions {
		for _, builder := range builders {
			fork := builder.Fork()
			subtree, err := b.buildJoinedScan(transaction, table, d)
			if err != nil {
				return nil, err
			}
			fork.AddPhysicalInfo(scan.ID(), d)
			if err := fork.Push(subtree); err != nil {
				return nil, err
			}
			out = append(out, fork)
		}
	}
	return out, nil
}

// handleNoneCommon serves a single-placement table: there is exactly one
// choice, shared by every strategy.
func (b *BaseRouter) handleNoneCommon(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	if len(table.DataPlacements) != 1 {
		return nil, perrors.Errorf(perrors.CodeInternal, "table %d routed as single-placement but has %d data placements", table.ID, len(table.DataPlacements))
	}
	store := table.DataPlacements[0]

	byStore, err := b.placementsByStore(table)
	if err != nil {
		return nil, err
	}
	columns := b.columnsNeeded(table, info)
	for _, c := range columns {
		if _, ok := byStore[store][c]; !ok {
			return nil, perrors.Errorf(perrors.CodeInternal, "column %d of table %d has no placement on store %d", c, table.ID, store)
		}
	}
	partitions := b.partitionsNeeded(scan, table, info)

	d := distributionOnStore(byStore, partitions, columns, store)
	return b.emitDistributions(scan, table, transaction, builders, []catalog.PlacementDistribution{d})
}
