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
	"errors"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/freshness"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/locks"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/log"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/queryinfo"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/txn"
)

// DQLRouter walks a logical tree post-order and rewrites every scan through
// its placement strategy, preceded by the freshness path for tolerant
// transactions or by lock acquisition otherwise. One DQLRouter exists per
// strategy; the universal router asks them in turn.
type DQLRouter struct {
	base     *BaseRouter
	strategy Strategy
	resolver *freshness.Resolver

	// freshnessEnabled gates the freshness path globally, from config.
	freshnessEnabled bool
}

var _ routing.Router = (*DQLRouter)(nil)

// NewDQLRouter returns a router driving the given strategy.
func NewDQLRouter(base *BaseRouter, strategy Strategy, freshnessEnabled bool) *DQLRouter {
	return &DQLRouter{
		base:             base,
		strategy:         strategy,
		resolver:         freshness.NewResolver(base.cat),
		freshnessEnabled: freshnessEnabled,
	}
}

// Name implements routing.Router.
func (r *DQLRouter) Name() string {
	return "dql-" + r.strategy.Name()
}

// ResetCaches implements routing.Router. It drops all cached joined scans,
// typically after a DDL.
func (r *DQLRouter) ResetCaches() {
	if r.base.cache != nil {
		r.base.cache.InvalidateAll()
	}
}

// Route implements routing.Router. It rejects DML and conditional-execute
// roots loudly: those must never reach the DQL router.
func (r *DQLRouter) Route(ctx context.Context, root algebra.Node, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	switch root.(type) {
	case *algebra.Modify:
		return nil, perrors.New(perrors.CodeInvalidArgument, "DQL router received a DML node; the pipeline is misconfigured")
	case *algebra.ConditionalExecute:
		return nil, perrors.New(perrors.CodeInvalidArgument, "DQL router received a conditional-execute node; the pipeline is misconfigured")
	}

	builders, err := r.buildDQL(ctx, root, []*routing.PlanBuilder{routing.NewPlanBuilder()}, transaction, info)
	if err != nil {
		return nil, err
	}
	if len(builders) > 0 {
		metrics().routedQueries.Add(r.strategy.Name(), 1)
	}
	return builders, nil
}

// buildDQL routes one node and everything below it. An empty result with a
// nil error means the traversal was canceled or the strategy aborted
// cooperatively; the router then declines the query.
func (r *DQLRouter) buildDQL(ctx context.Context, node algebra.Node, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	if ctx.Err() != nil || transaction.Canceled() {
		return nil, nil
	}
	if setOp, ok := node.(*algebra.SetOp); ok {
		return r.buildSetOp(ctx, setOp, builders, transaction, info)
	}
	return r.buildSelect(ctx, node, builders, transaction, info)
}

func (r *DQLRouter) buildSelect(ctx context.Context, node algebra.Node, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	for _, input := range node.Inputs() {
		var err error
		builders, err = r.buildDQL(ctx, input, builders, transaction, info)
		if err != nil {
			return nil, err
		}
		if len(builders) == 0 {
			return nil, nil
		}
	}

	switch n := node.(type) {
	case *algebra.Scan:
		return r.routeScan(n, builders, transaction, info)
	case *algebra.Values:
		return handleValues(n, builders)
	default:
		return handleGeneric(node, builders)
	}
}

// buildSetOp routes the left child against the current builders, routes the
// right child once on a fresh builder, and replaces each surviving left
// top with a copy of the set operation over both. Right-side alternatives
// are deliberately not expanded; the first build is used.
func (r *DQLRouter) buildSetOp(ctx context.Context, node *algebra.SetOp, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	builders, err := r.buildDQL(ctx, node.Ins[0], builders, transaction, info)
	if err != nil {
		return nil, err
	}
	if len(builders) == 0 {
		return nil, nil
	}

	rightBuilders, err := r.buildDQL(ctx, node.Ins[1], []*routing.PlanBuilder{routing.NewPlanBuilder()}, transaction, info)
	if err != nil {
		return nil, err
	}
	if len(rightBuilders) == 0 {
		return nil, nil
	}
	rightPlan, err := rightBuilders[0].Build()
	if err != nil {
		return nil, err
	}

	for _, builder := range builders {
		top, err := builder.Peek()
		if err != nil {
			return nil, err
		}
		combined := node.Clone([]algebra.Node{top, algebra.CloneTree(rightPlan.Root)})
		if err := builder.ReplaceTop(combined); err != nil {
			return nil, err
		}
		for id, d := range rightPlan.Physical {
			builder.AddPhysicalInfo(id, d)
		}
	}
	return builders, nil
}

// routeScan applies the per-scan protocol: freshness when tolerated and
// supported, otherwise locks, then strategy dispatch by partitioning
// regime.
func (r *DQLRouter) routeScan(scan *algebra.Scan, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	table, err := r.base.cat.GetTable(scan.Table)
	if err != nil {
		return nil, perrors.Wrapf(err, "routing scan %d", scan.ID())
	}

	if r.freshnessEnabled && transaction.AcceptsOutdated() {
		supports, err := r.base.cat.SupportsOutdated(table.ID)
		if err != nil {
			return nil, err
		}
		if supports {
			routed, err := r.handleFreshness(scan, table, builders, transaction, info)
			if err == nil {
				// Results read from stale copies must not land in the
				// result cache.
				transaction.SetUseCache(false)
				return routed, nil
			}
			if !errors.Is(err, freshness.ErrInsufficientFreshness) {
				return nil, err
			}
			// Freshness cannot be served; degrade to the locking path.
			transaction.MarkFreshnessDegraded()
			metrics().freshnessFallbacks.Add(1)
			log.V(2).Infof("freshness fallback for table %d (%s)", table.ID, transaction.FreshnessSpec())
		}
	}

	if err := r.base.acquireLocks(transaction, scan, info); err != nil {
		if errors.Is(err, locks.ErrDeadlock) {
			metrics().deadlocks.Add(1)
		}
		return nil, err
	}

	if table.Partition.IsHorizontal() {
		return r.strategy.HandleHorizontal(scan, table, builders, transaction, info)
	}
	if len(table.DataPlacements) > 1 {
		return r.strategy.HandleVerticalOrReplicated(scan, table, builders, transaction, info)
	}
	return r.strategy.HandleNone(scan, table, builders, transaction, info)
}

// handleFreshness forks one builder per tolerable distribution and pushes
// the joined scan for it.
func (r *DQLRouter) handleFreshness(scan *algebra.Scan, table *catalog.Table, builders []*routing.PlanBuilder, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*routing.PlanBuilder, error) {
	partitions := r.base.partitionsNeeded(scan, table, info)
	candidates, err := r.resolver.CandidatePartitionPlacements(table, partitions, transaction.FreshnessSpec())
	if err != nil {
		return nil, err
	}

	columns := r.base.columnsNeeded(table, info)
	distributions, err := r.resolver.CandidateColumnDistributions(candidates, table, columns)
	if err != nil {
		return nil, err
	}

	var routed []*routing.PlanBuilder
	for _, d := range distributions {
		for _, builder := range builders {
			fork := builder.Fork()
			subtree, err := r.base.buildJoinedScan(transaction, table, d)
			if err != nil {
				return nil, err
			}
			fork.AddPhysicalInfo(scan.ID(), d)
			if err := fork.Push(subtree); err != nil {
				return nil, err
			}
			routed = append(routed, fork)
		}
	}
	return routed, nil
}
