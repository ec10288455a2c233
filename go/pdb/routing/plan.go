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

// Package routing defines the router contract and the plan builders routers
// produce. A router turns one logical algebra tree into zero or more
// candidate physical trees; cost-based selection among candidates happens
// upstream.
package routing

import (
	"context"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/queryinfo"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/txn"
)

// Router proposes routing plans for read queries. An empty result means the
// router declines the query; in universal routing the caller then asks the
// next router.
type Router interface {
	Name() string

	// Route produces candidate plan builders for the logical tree. The
	// returned builders are still open; the caller freezes them.
	Route(ctx context.Context, root algebra.Node, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]*PlanBuilder, error)

	// ResetCaches drops any routing state kept across queries, e.g. after
	// a DDL.
	ResetCaches()
}

// Plan is a frozen routing result: the physical algebra plus the placement
// distribution chosen for every routed scan.
type Plan struct {
	Root algebra.Node

	// Physical maps each routed logical scan to the distribution that
	// serves it.
	Physical map[algebra.NodeID]catalog.PlacementDistribution
}
