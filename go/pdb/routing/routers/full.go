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
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing/scancache"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/txn"
)

// FullPlacementStrategy enumerates the composite distribution built from
// each partition's preferred stores plus each replica that can serve the
// scan alone; other per-partition store mixes are not enumerated. It
// proposes one plan builder per alternative and leaves the choice to the
// plan selector.
type FullPlacementStrategy struct {
	base *BaseRouter
}

var _ Strategy = (*FullPlacementStrategy)(nil)

// NewFullPlacementStrategy returns the enumerating strategy.
func NewFullPlacementStrategy(base *BaseRouter) *FullPlacementStrategy {
	return &FullPlacementStrategy{base: base}
}

func (s *FullPlacementStrategy) Name() string { return "full" }

// HandleNone implements Strategy.
func (s *FullPlacementStrategy) HandleNone(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	return s.base.handleNoneCommon(scan, table, builders, transaction, info)
}

// HandleVerticalOrReplicated implements Strategy.
func (s *FullPlacementStrategy) HandleVerticalOrReplicated(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	distributions, err := s.enumerate(scan, table, info)
	if err != nil {
		return nil, err
	}
	return s.base.emitDistributions(scan, table, transaction, builders, distributions)
}

// HandleHorizontal implements Strategy.
func (s *FullPlacementStrategy) HandleHorizontal(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	distributions, err := s.enumerate(scan, table, info)
	if err != nil {
		return nil, err
	}
	return s.base.emitDistributions(scan, table, transaction, builders, distributions)
}

// enumerate produces the candidate distributions for a scan: the composite
// distribution built from each partition's preferred stores first, then
// every single-store cover, deduplicated by fingerprint.
func (s *FullPlacementStrategy) enumerate(scan *algebra.Scan, table *catalog.Table, info *queryinfo.QueryInformation) ([]catalog.PlacementDistribution, error) {
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

	composite, err := compositeDistribution(byStore, partitionStores, partitions, columns, table)
	if err != nil {
		return nil, err
	}

	distributions := []catalog.PlacementDistribution{composite}
	seen := map[string]bool{scancache.Fingerprint(composite): true}

	for _, store := range singleStoreCovers(byStore, partitionStores, partitions, columns) {
		d := distributionOnStore(byStore, partitions, columns, store)
		fp := scancache.Fingerprint(d)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		distributions = append(distributions, d)
	}
	return distributions, nil
}
