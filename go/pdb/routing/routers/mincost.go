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
	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/queryinfo"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/txn"
)

// MinCostStrategy emits exactly one distribution per scan: the single-store
// cover with the freshest placements when one exists, the composite split
// otherwise. Cost is compared as (staleness total, store ID), so the
// tie-break is stable.
type MinCostStrategy struct {
	base *BaseRouter
}

var _ Strategy = (*MinCostStrategy)(nil)

// NewMinCostStrategy returns the single-choice strategy.
func NewMinCostStrategy(base *BaseRouter) *MinCostStrategy {
	return &MinCostStrategy{base: base}
}

func (s *MinCostStrategy) Name() string { return "mincost" }

// HandleNone implements Strategy.
func (s *MinCostStrategy) HandleNone(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	return s.base.handleNoneCommon(scan, table, builders, transaction, info)
}

// HandleVerticalOrReplicated implements Strategy.
func (s *MinCostStrategy) HandleVerticalOrReplicated(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	return s.routeCheapest(scan, table, builders, transaction, info)
}

// HandleHorizontal implements Strategy.
func (s *MinCostStrategy) HandleHorizontal(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	return s.routeCheapest(scan, table, builders, transaction, info)
}

func (s *MinCostStrategy) routeCheapest(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	byStore, err := s.base.placementsByStore(table)
	if err != nil {
		return nil, err
	}
	partitions := s.base.partitionsNeeded(scan, table, info)
	columns := s.base.columnsNeeded(table, info)
	partitionStores, err := s.base.allowedPartitionStores(partitions)
	if err != nil {
		return nil, err
	}

	covers := singleStoreCovers(byStore, partitionStores, partitions, columns)
	var d catalog.PlacementDistribution
	if len(covers) > 0 {
		best := covers[0]
		bestCost, err := s.storeCost(partitions, covers[0])
		if err != nil {
			return nil, err
		}
		for _, store := range covers[1:] {
			cost, err := s.storeCost(partitions, store)
			if err != nil {
				return nil, err
			}
			if cost < bestCost {
				best, bestCost = store, cost
			}
		}
		d = distributionOnStore(byStore, partitions, columns, best)
	} else {
		d, err = compositeDistribution(byStore, partitionStores, partitions, columns, table)
		if err != nil {
			return nil, err
		}
	}
	return s.base.emitDistributions(scan, table, transaction, builders, []catalog.PlacementDistribution{d})
}

// storeCost totals the staleness delay of the store's placements over the
// needed partitions. Store order already breaks ties because covers are
// visited ascending and only strictly cheaper stores win.
func (s *MinCostStrategy) storeCost(partitions []catalog.PartitionID, store catalog.StoreID) (int64, error) {
	var total int64
	for _, pid := range partitions {
		placements, err := s.base.cat.PartitionPlacementsOf(pid)
		if err != nil {
			return 0, err
		}
		for _, pp := range placements {
			if pp.Store == store {
				total += int64(pp.Staleness.Delay)
				break
			}
		}
	}
	return total, nil
}
