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

// SinglePlacementStrategy only proposes plans that read a scan entirely
// from one store, avoiding cross-store joins and unions. When no store can
// serve a scan alone it declines cooperatively, and the universal router
// moves on.
type SinglePlacementStrategy struct {
	base *BaseRouter
}

var _ Strategy = (*SinglePlacementStrategy)(nil)

// NewSinglePlacementStrategy returns the one-store-per-scan strategy.
func NewSinglePlacementStrategy(base *BaseRouter) *SinglePlacementStrategy {
	return &SinglePlacementStrategy{base: base}
}

func (s *SinglePlacementStrategy) Name() string { return "single" }

// HandleNone implements Strategy.
func (s *SinglePlacementStrategy) HandleNone(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	return s.base.handleNoneCommon(scan, table, builders, transaction, info)
}

// HandleVerticalOrReplicated implements Strategy.
func (s *SinglePlacementStrategy) HandleVerticalOrReplicated(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	return s.routeSingleStore(scan, table, builders, transaction, info)
}

// HandleHorizontal implements Strategy.
func (s *SinglePlacementStrategy) HandleHorizontal(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	return s.routeSingleStore(scan, table, builders, transaction, info)
}

func (s *SinglePlacementStrategy) routeSingleStore(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
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
	if len(covers) == 0 {
		// Cooperative abort: this strategy cannot serve the scan.
		return nil, nil
	}

	d := distributionOnStore(byStore, partitions, columns, covers[0])
	return s.base.emitDistributions(scan, table, transaction, builders, []catalog.PlacementDistribution{d})
}
