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

// Package routers implements DQL routing: the traversal driver that rewrites
// logical trees into physical candidates, and the placement strategies that
// choose distributions per scan.
package routers

import (
	"sort"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/locks"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/queryinfo"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing/scancache"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/txn"
)

// BaseRouter bundles the dependencies every router needs and the node
// handling shared by all of them: values emission, structural passthrough,
// joined-scan construction, and lock acquisition.
type BaseRouter struct {
	cat     catalog.Catalog
	cache   *scancache.Cache
	lockMgr *locks.Manager
}

// NewBaseRouter wires a BaseRouter. The cache may be nil to build scans
// uncached.
func NewBaseRouter(cat catalog.Catalog, cache *scancache.Cache, lockMgr *locks.Manager) *BaseRouter {
	return &BaseRouter{cat: cat, cache: cache, lockMgr: lockMgr}
}

// columnsNeeded returns the columns the query reads from the table, in
// declaration order. With no recorded usage the whole table is needed.
func (b *BaseRouter) columnsNeeded(table *catalog.Table, info *queryinfo.QueryInformation) []catalog.ColumnID {
	used := info.ColumnsUsed(table.ID)
	if used.Cardinality() == 0 {
		return append([]catalog.ColumnID(nil), table.ColumnIDs...)
	}
	var out []catalog.ColumnID
	for _, c := range table.ColumnIDs {
		if used.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// partitionsNeeded returns the partitions a scan touches, in ascending ID
// order. A scan without query information reads all partitions.
func (b *BaseRouter) partitionsNeeded(scan *algebra.Scan, table *catalog.Table, info *queryinfo.QueryInformation) []catalog.PartitionID {
	accessed, ok := info.PartitionsAccessed(scan.ID())
	if !ok {
		return append([]catalog.PartitionID(nil), table.Partition.PartitionIDs...)
	}
	var out []catalog.PartitionID
	for _, pid := range table.Partition.PartitionIDs {
		if accessed.Contains(pid) {
			out = append(out, pid)
		}
	}
	return out
}

// placementsByStore indexes a table's column placements by store.
func (b *BaseRouter) placementsByStore(table *catalog.Table) (map[catalog.StoreID]map[catalog.ColumnID]catalog.ColumnPlacement, error) {
	placements, err := b.cat.PlacementsOf(table.ID)
	if err != nil {
		return nil, err
	}
	byStore := make(map[catalog.StoreID]map[catalog.ColumnID]catalog.ColumnPlacement)
	for _, cp := range placements {
		if byStore[cp.Store] == nil {
			byStore[cp.Store] = make(map[catalog.ColumnID]catalog.ColumnPlacement)
		}
		byStore[cp.Store][cp.Column] = cp
	}
	return byStore, nil
}

// buildJoinedScan materializes the physical subtree for a distribution,
// memoized per transaction scope.
func (b *BaseRouter) buildJoinedScan(transaction *txn.Transaction, table *catalog.Table, d catalog.PlacementDistribution) (algebra.Node, error) {
	build := func() (algebra.Node, error) {
		return b.constructJoinedScan(table, d)
	}
	if b.cache == nil {
		return build()
	}
	return b.cache.BuildScan(transaction.ID(), d, build)
}

// constructJoinedScan emits, per partition, one scan per store in the
// distribution, joined on the implicit row identifier, and unions the
// partitions in ascending ID order. A single-partition single-store
// distribution collapses to one multi-column scan.
func (b *BaseRouter) constructJoinedScan(table *catalog.Table, d catalog.PlacementDistribution) (algebra.Node, error) {
	partitions := make([]catalog.PartitionID, 0, len(d))
	for pid := range d {
		partitions = append(partitions, pid)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	perPartition := make([]algebra.Node, 0, len(partitions))
	for _, pid := range partitions {
		placements := d[pid]
		if len(placements) == 0 {
			return nil, perrors.Errorf(perrors.CodeInternal, "empty placement list for partition %d of table %d", pid, table.ID)
		}

		// Group placements by store, preserving first-appearance order.
		var stores []catalog.StoreID
		columnsOnStore := make(map[catalog.StoreID][]catalog.ColumnID)
		for _, cp := range placements {
			if _, ok := columnsOnStore[cp.Store]; !ok {
				stores = append(stores, cp.Store)
			}
			columnsOnStore[cp.Store] = append(columnsOnStore[cp.Store], cp.Column)
		}

		node := algebra.Node(algebra.NewPhysicalScan(table.ID, pid, stores[0], columnsOnStore[stores[0]]))
		for _, store := range stores[1:] {
			node = algebra.NewRowIDJoin(node, algebra.NewPhysicalScan(table.ID, pid, store, columnsOnStore[store]))
		}
		perPartition = append(perPartition, node)
	}

	if len(perPartition) == 1 {
		return perPartition[0], nil
	}
	return algebra.NewConcat(perPartition...), nil
}

// handleValues emits the physical form of a Values node into every builder.
func handleValues(v *algebra.Values, builders []*routing.PlanBuilder) ([]*routing.PlanBuilder, error) {
	for _, b := range builders {
		if err := b.Push(algebra.NewPhysicalValues(v.Rows)); err != nil {
			return nil, err
		}
	}
	return builders, nil
}

// handleGeneric duplicates an opaque node into every builder, re-wired to
// the already-routed inputs sitting on the builder's stack.
func handleGeneric(node algebra.Node, builders []*routing.PlanBuilder) ([]*routing.PlanBuilder, error) {
	arity := len(node.Inputs())
	for _, b := range builders {
		inputs := make([]algebra.Node, arity)
		for i := arity - 1; i >= 0; i-- {
			routed, err := b.Pop()
			if err != nil {
				return nil, err
			}
			inputs[i] = routed
		}
		if err := b.Push(node.Clone(inputs)); err != nil {
			return nil, err
		}
	}
	return builders, nil
}

// acquireLocks takes the shared global schema lock and shared locks on
// every entity the subtree reads, in ascending (table, partition) order.
// Locks already held by the transaction are skipped.
func (b *BaseRouter) acquireLocks(transaction *txn.Transaction, node algebra.Node, info *queryinfo.QueryInformation) error {
	if !transaction.HoldsLock(locks.GlobalSchemaLock) {
		if err := b.lockMgr.Lock(transaction.ID(), locks.GlobalSchemaLock, locks.Shared); err != nil {
			return err
		}
		transaction.RegisterLock(locks.GlobalSchemaLock)
	}

	entities, err := locks.AccessedEntities(b.cat, node, info)
	if err != nil {
		return err
	}
	for _, e := range entities {
		if transaction.HoldsLock(e) {
			continue
		}
		if err := b.lockMgr.Lock(transaction.ID(), e, locks.Shared); err != nil {
			return err
		}
		transaction.RegisterLock(e)
	}
	return nil
}
