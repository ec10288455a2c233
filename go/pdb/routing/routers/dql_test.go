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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/config"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/freshness"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/locks"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/queryinfo"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing/scancache"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/txn"
)

// The test catalog:
//
//   t1 (id 1): unpartitioned, columns a=11 b=12, one placement on store 1.
//   t2 (id 2): vertically split, a=21 on store 1, b=22 on store 2.
//   t3 (id 3): range partitioned into 301/302/303, one primary placement
//              each on stores 1/2/3.
//   t4 (id 4): range partitioned into 401/402, primaries on store 1,
//              refreshable copies: 401 on stores 2 (100ms) and 3 (400ms),
//              402 on store 2 (200ms). Supports outdated reads.
const routerFixture = `
tables:
  - id: 1
    name: t1
    partition: {kind: NONE}
    columns:
      - {id: 11, name: a}
      - {id: 12, name: b}
    partitions: [{id: 101}]
    columnPlacements:
      - {column: 11, store: 1}
      - {column: 12, store: 1}
    partitionPlacements:
      - {partition: 101, store: 1, role: PRIMARY}
  - id: 2
    name: t2
    partition: {kind: VERTICAL}
    columns:
      - {id: 21, name: a}
      - {id: 22, name: b}
    partitions: [{id: 201}]
    columnPlacements:
      - {column: 21, store: 1}
      - {column: 22, store: 2}
    partitionPlacements:
      - {partition: 201, store: 1, role: PRIMARY}
      - {partition: 201, store: 2, role: REFRESHABLE}
  - id: 3
    name: t3
    partition:
      kind: RANGE
      column: 31
    columns:
      - {id: 31, name: a}
      - {id: 32, name: b}
    partitions:
      - {id: 301, maxKey: 100}
      - {id: 302, minKey: 100, maxKey: 200}
      - {id: 303, minKey: 200}
    columnPlacements:
      - {column: 31, store: 1}
      - {column: 32, store: 1}
      - {column: 31, store: 2}
      - {column: 32, store: 2}
      - {column: 31, store: 3}
      - {column: 32, store: 3}
    partitionPlacements:
      - {partition: 301, store: 1, role: PRIMARY}
      - {partition: 302, store: 2, role: PRIMARY}
      - {partition: 303, store: 3, role: PRIMARY}
  - id: 4
    name: t4
    supportsOutdated: true
    partition:
      kind: RANGE
      column: 41
    columns:
      - {id: 41, name: a}
      - {id: 42, name: b}
    partitions:
      - {id: 401, maxKey: 100}
      - {id: 402, minKey: 100}
    columnPlacements:
      - {column: 41, store: 1}
      - {column: 42, store: 1}
      - {column: 41, store: 2}
      - {column: 42, store: 2}
      - {column: 41, store: 3}
      - {column: 42, store: 3}
    partitionPlacements:
      - {partition: 401, store: 1, role: PRIMARY}
      - {partition: 401, store: 2, role: REFRESHABLE, delayMs: 100}
      - {partition: 401, store: 3, role: REFRESHABLE, delayMs: 400}
      - {partition: 402, store: 1, role: PRIMARY}
      - {partition: 402, store: 2, role: REFRESHABLE, delayMs: 200}
`

type env struct {
	snap    *catalog.Snapshot
	cache   *scancache.Cache
	lockMgr *locks.Manager
	base    *BaseRouter
}

func newEnv(t *testing.T) *env {
	t.Helper()
	snap, err := catalog.Parse([]byte(routerFixture))
	require.NoError(t, err)
	cache := scancache.New(64)
	lockMgr := locks.NewManager()
	return &env{
		snap:    snap,
		cache:   cache,
		lockMgr: lockMgr,
		base:    NewBaseRouter(snap, cache, lockMgr),
	}
}

func (e *env) fullRouter() *DQLRouter {
	return NewDQLRouter(e.base, NewFullPlacementStrategy(e.base), true)
}

func (e *env) singleRouter() *DQLRouter {
	return NewDQLRouter(e.base, NewSinglePlacementStrategy(e.base), true)
}

func (e *env) minCostRouter() *DQLRouter {
	return NewDQLRouter(e.base, NewMinCostStrategy(e.base), true)
}

func buildAll(t *testing.T, builders []*routing.PlanBuilder) []*routing.Plan {
	t.Helper()
	plans := make([]*routing.Plan, len(builders))
	for i, b := range builders {
		plan, err := b.Build()
		require.NoError(t, err)
		plans[i] = plan
	}
	return plans
}

// Scenario 1: a scan of a single-placement table routes to exactly one
// physical scan of that placement, projecting the used columns.
func TestSinglePlacementScan(t *testing.T) {
	e := newEnv(t)
	scan := algebra.NewScan(1)
	info := queryinfo.New().AddUsedColumns(1, 11)

	builders, err := e.fullRouter().Route(context.Background(), scan, txn.New(), info)
	require.NoError(t, err)
	require.Len(t, builders, 1)

	plan := buildAll(t, builders)[0]
	phys, ok := plan.Root.(*algebra.PhysicalScan)
	require.True(t, ok, "want a bare physical scan, got:\n%s", algebra.Format(plan.Root))
	assert.Equal(t, catalog.TableID(1), phys.Table)
	assert.Equal(t, catalog.PartitionID(101), phys.Partition)
	assert.Equal(t, catalog.StoreID(1), phys.Store)
	assert.Equal(t, []catalog.ColumnID{11}, phys.Columns)
}

// Scenario 2: a vertically split table is reassembled with a row-id join
// between the two column placements.
func TestVerticalSplit(t *testing.T) {
	e := newEnv(t)
	scan := algebra.NewScan(2)
	info := queryinfo.New().AddUsedColumns(2, 21, 22)

	builders, err := e.fullRouter().Route(context.Background(), scan, txn.New(), info)
	require.NoError(t, err)
	require.Len(t, builders, 1)

	plan := buildAll(t, builders)[0]
	join, ok := plan.Root.(*algebra.RowIDJoin)
	require.True(t, ok, "want a row-id join, got:\n%s", algebra.Format(plan.Root))

	left := join.Ins[0].(*algebra.PhysicalScan)
	right := join.Ins[1].(*algebra.PhysicalScan)
	assert.Equal(t, catalog.StoreID(1), left.Store)
	assert.Equal(t, []catalog.ColumnID{21}, left.Columns)
	assert.Equal(t, catalog.StoreID(2), right.Store)
	assert.Equal(t, []catalog.ColumnID{22}, right.Columns)
}

// Scenario 3: a pruned horizontal scan unions only the accessed partitions,
// in partition ID order; the untouched store is not referenced.
func TestHorizontalPartitioning(t *testing.T) {
	e := newEnv(t)
	scan := algebra.NewScan(3)
	info := queryinfo.New().
		AddUsedColumns(3, 31, 32).
		AddAccessedPartitions(scan.ID(), 301, 303)

	builders, err := e.fullRouter().Route(context.Background(), scan, txn.New(), info)
	require.NoError(t, err)
	require.Len(t, builders, 1)

	plan := buildAll(t, builders)[0]
	concat, ok := plan.Root.(*algebra.Concat)
	require.True(t, ok, "want a partition union, got:\n%s", algebra.Format(plan.Root))
	require.Len(t, concat.Ins, 2)

	first := concat.Ins[0].(*algebra.PhysicalScan)
	second := concat.Ins[1].(*algebra.PhysicalScan)
	assert.Equal(t, catalog.PartitionID(301), first.Partition)
	assert.Equal(t, catalog.StoreID(1), first.Store)
	assert.Equal(t, catalog.PartitionID(303), second.Partition)
	assert.Equal(t, catalog.StoreID(3), second.Store)

	// Store 2 holds only the untouched partition and must not appear.
	_ = algebra.VisitTopDown(plan.Root, func(n algebra.Node) error {
		if phys, ok := n.(*algebra.PhysicalScan); ok {
			assert.NotEqual(t, catalog.StoreID(2), phys.Store)
		}
		return nil
	})
}

// Scenario 4: a freshness-tolerant read picks refreshable placements within
// the bound and disables the result cache.
func TestFreshnessSuccess(t *testing.T) {
	e := newEnv(t)
	scan := algebra.NewScan(4)
	info := queryinfo.New().AddUsedColumns(4, 41, 42)
	transaction := txn.New(txn.AcceptsOutdated(freshness.NewDelayBound(time.Second)))

	builders, err := e.fullRouter().Route(context.Background(), scan, transaction, info)
	require.NoError(t, err)
	require.NotEmpty(t, builders)

	assert.False(t, transaction.UseCache())
	assert.Empty(t, transaction.Locks(), "freshness path must not lock")

	plan := buildAll(t, builders)[0]
	_ = algebra.VisitTopDown(plan.Root, func(n algebra.Node) error {
		if phys, ok := n.(*algebra.PhysicalScan); ok {
			// Store 1 only carries primaries; tolerant plans avoid it.
			assert.NotEqual(t, catalog.StoreID(1), phys.Store)
		}
		return nil
	})

	d, ok := plan.Physical[scan.ID()]
	require.True(t, ok)
	for _, cp := range d[401] {
		assert.Equal(t, catalog.StoreID(2), cp.Store)
	}
	for _, cp := range d[402] {
		assert.Equal(t, catalog.StoreID(2), cp.Store)
	}
}

// Scenario 5: when one partition has no placement within the bound, the
// freshness attempt degrades to the locking path and primaries serve the
// read.
func TestFreshnessFallback(t *testing.T) {
	e := newEnv(t)
	scan := algebra.NewScan(4)
	info := queryinfo.New().AddUsedColumns(4, 41, 42)
	// 150ms admits 401@store2 (100ms) but not 402@store2 (200ms).
	transaction := txn.New(txn.AcceptsOutdated(freshness.NewDelayBound(150 * time.Millisecond)))

	builders, err := e.fullRouter().Route(context.Background(), scan, transaction, info)
	require.NoError(t, err)
	require.NotEmpty(t, builders)

	assert.True(t, transaction.FreshnessDegraded())
	assert.True(t, transaction.UseCache(), "fallback keeps the result cache usable")

	held := transaction.Locks()
	assert.Contains(t, held, locks.GlobalSchemaLock)
	assert.Contains(t, held, locks.EntityID{Table: 4, Partition: 401})
	assert.Contains(t, held, locks.EntityID{Table: 4, Partition: 402})

	plan := buildAll(t, builders)[0]
	_ = algebra.VisitTopDown(plan.Root, func(n algebra.Node) error {
		if phys, ok := n.(*algebra.PhysicalScan); ok {
			assert.Equal(t, catalog.StoreID(1), phys.Store, "fallback reads the primaries")
		}
		return nil
	})
}

// Scenario 6: a set operation forks the right side once and rebuilds the
// operation over both physical inputs.
func TestSetOpFork(t *testing.T) {
	e := newEnv(t)
	left := algebra.NewScan(1)
	right := algebra.NewScan(1)
	union := algebra.NewSetOp(algebra.Union, left, right)
	info := queryinfo.New().AddUsedColumns(1, 11)

	builders, err := e.fullRouter().Route(context.Background(), union, txn.New(), info)
	require.NoError(t, err)
	require.Len(t, builders, 1)

	plan := buildAll(t, builders)[0]
	setOp, ok := plan.Root.(*algebra.SetOp)
	require.True(t, ok, "set operations must be preserved, got:\n%s", algebra.Format(plan.Root))
	assert.Equal(t, algebra.Union, setOp.Kind)

	for _, input := range setOp.Ins {
		phys, ok := input.(*algebra.PhysicalScan)
		require.True(t, ok)
		assert.Equal(t, catalog.StoreID(1), phys.Store)
		assert.Equal(t, []catalog.ColumnID{11}, phys.Columns)
	}
}

func TestValuesAndGenericPassthrough(t *testing.T) {
	e := newEnv(t)
	scan := algebra.NewScan(1)
	values := algebra.NewValues([][]any{{int64(1), "x"}})
	join := algebra.NewGeneric("Join", scan, values)
	root := algebra.NewGeneric("Project", join)
	info := queryinfo.New().AddUsedColumns(1, 11)

	builders, err := e.minCostRouter().Route(context.Background(), root, txn.New(), info)
	require.NoError(t, err)
	require.Len(t, builders, 1)

	plan := buildAll(t, builders)[0]
	project, ok := plan.Root.(*algebra.Generic)
	require.True(t, ok)
	assert.Equal(t, "Project", project.Kind)

	innerJoin := project.Ins[0].(*algebra.Generic)
	assert.Equal(t, "Join", innerJoin.Kind)
	assert.IsType(t, &algebra.PhysicalScan{}, innerJoin.Ins[0])
	assert.IsType(t, &algebra.PhysicalValues{}, innerJoin.Ins[1])
}

func TestRoutingMisuseRejected(t *testing.T) {
	e := newEnv(t)
	info := queryinfo.New()

	_, err := e.fullRouter().Route(context.Background(), algebra.NewModify(1, algebra.NewScan(1)), txn.New(), info)
	require.Error(t, err)
	assert.Equal(t, perrors.CodeInvalidArgument, perrors.Code(err))

	_, err = e.fullRouter().Route(context.Background(), algebra.NewConditionalExecute(algebra.NewScan(1)), txn.New(), info)
	require.Error(t, err)
	assert.Equal(t, perrors.CodeInvalidArgument, perrors.Code(err))
}

func TestUnknownTableIsFatal(t *testing.T) {
	e := newEnv(t)
	_, err := e.fullRouter().Route(context.Background(), algebra.NewScan(99), txn.New(), queryinfo.New())
	require.Error(t, err)
	assert.Equal(t, perrors.CodeNotFound, perrors.Code(err))
}

func TestCooperativeAbortDeclines(t *testing.T) {
	e := newEnv(t)
	// No single store covers both columns of the vertically split t2, so
	// the single-placement strategy declines without error.
	scan := algebra.NewScan(2)
	info := queryinfo.New().AddUsedColumns(2, 21, 22)

	builders, err := e.singleRouter().Route(context.Background(), scan, txn.New(), info)
	require.NoError(t, err)
	assert.Empty(t, builders)
}

func TestUniversalSkipsDecliningRouters(t *testing.T) {
	e := newEnv(t)
	scan := algebra.NewScan(2)
	info := queryinfo.New().AddUsedColumns(2, 21, 22)

	universal := NewUniversal(e.singleRouter(), e.fullRouter())
	proposals, err := universal.Propose(context.Background(), scan, txn.New(), info)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, "dql-full", proposals[0].Router)
	assert.NotEmpty(t, proposals[0].Builders)
}

func TestUniversalFromConfigRejectsUnknownStrategy(t *testing.T) {
	e := newEnv(t)
	_, err := NewUniversalFromConfig(e.base, config.Router{Strategies: []string{"nope"}})
	require.Error(t, err)

	universal, err := NewUniversalFromConfig(e.base, config.DefaultRouter())
	require.NoError(t, err)
	require.NotNil(t, universal)
}

func TestCancellationReturnsEmpty(t *testing.T) {
	e := newEnv(t)
	transaction := txn.New()
	transaction.Cancel()

	builders, err := e.fullRouter().Route(context.Background(), algebra.NewScan(1), transaction, queryinfo.New())
	require.NoError(t, err)
	assert.Empty(t, builders)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	builders, err = e.fullRouter().Route(ctx, algebra.NewScan(1), txn.New(), queryinfo.New())
	require.NoError(t, err)
	assert.Empty(t, builders)
}

// With a fixed catalog snapshot, routing is a pure function of its inputs.
func TestDeterminism(t *testing.T) {
	e := newEnv(t)

	route := func() []string {
		scan := &algebra.Scan{NodeID: 9001, Table: 3}
		info := queryinfo.New().
			AddUsedColumns(3, 31).
			AddAccessedPartitions(scan.ID(), 301, 302, 303)
		builders, err := e.fullRouter().Route(context.Background(), scan, txn.New(), info)
		require.NoError(t, err)
		var shapes []string
		for _, plan := range buildAll(t, builders) {
			shapes = append(shapes, algebra.Format(plan.Root))
		}
		return shapes
	}

	first := route()
	second := route()
	assert.Equal(t, first, second)
}

// The per-entity locks taken equal exactly the (table, partition) pairs the
// query reads.
func TestLockMinimality(t *testing.T) {
	e := newEnv(t)
	scan := algebra.NewScan(3)
	info := queryinfo.New().
		AddUsedColumns(3, 31).
		AddAccessedPartitions(scan.ID(), 301)
	transaction := txn.New()

	_, err := e.minCostRouter().Route(context.Background(), scan, transaction, info)
	require.NoError(t, err)

	assert.ElementsMatch(t, []any{
		locks.GlobalSchemaLock,
		locks.EntityID{Table: 3, Partition: 301},
	}, transaction.Locks())

	// The lock manager holds shared locks for exactly those entities.
	holders := e.lockMgr.Holders(locks.EntityID{Table: 3, Partition: 301})
	assert.Contains(t, holders, transaction.ID())
	assert.Empty(t, e.lockMgr.Holders(locks.EntityID{Table: 3, Partition: 302}))
}

// Scans of every partition of t3 with no pruning information lock and route
// all partitions.
func TestScanWithoutQueryInfoReadsAllPartitions(t *testing.T) {
	e := newEnv(t)
	scan := algebra.NewScan(3)
	transaction := txn.New()

	builders, err := e.fullRouter().Route(context.Background(), scan, transaction, queryinfo.New())
	require.NoError(t, err)
	require.NotEmpty(t, builders)

	plan := buildAll(t, builders)[0]
	seen := map[catalog.PartitionID]bool{}
	_ = algebra.VisitTopDown(plan.Root, func(n algebra.Node) error {
		if phys, ok := n.(*algebra.PhysicalScan); ok {
			seen[phys.Partition] = true
		}
		return nil
	})
	assert.Equal(t, map[catalog.PartitionID]bool{301: true, 302: true, 303: true}, seen)

	assert.Len(t, transaction.Locks(), 4) // global + three partitions
}

// Routing the same distribution twice inside one transaction reuses the
// cached joined scan subtree.
func TestJoinedScanCacheReuse(t *testing.T) {
	e := newEnv(t)
	transaction := txn.New()
	info := queryinfo.New().AddUsedColumns(1, 11)

	before := e.cache.Len()
	_, err := e.fullRouter().Route(context.Background(), algebra.NewScan(1), transaction, info)
	require.NoError(t, err)
	require.Equal(t, before+1, e.cache.Len())

	_, err = e.fullRouter().Route(context.Background(), algebra.NewScan(1), transaction, info)
	require.NoError(t, err)
	assert.Equal(t, before+1, e.cache.Len())

	e.fullRouter().ResetCaches()
	assert.Zero(t, e.cache.Len())
}
