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

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/config"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/queryinfo"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/txn"
)

// Proposal is the set of candidate plans one router contributed.
type Proposal struct {
	Router   string
	Builders []*routing.PlanBuilder
}

// Universal asks every registered router for plan proposals. Routers that
// decline contribute nothing; plan selection over the union happens
// upstream.
type Universal struct {
	routers []routing.Router
}

// NewUniversal returns a Universal over the given routers, asked in order.
func NewUniversal(routers ...routing.Router) *Universal {
	return &Universal{routers: routers}
}

// NewUniversalFromConfig assembles the configured strategy set on top of a
// shared BaseRouter.
func NewUniversalFromConfig(base *BaseRouter, cfg config.Router) (*Universal, error) {
	var rs []routing.Router
	for _, name := range cfg.Strategies {
		var strategy Strategy
		switch name {
		case "full":
			strategy = NewFullPlacementStrategy(base)
		case "single":
			strategy = NewSinglePlacementStrategy(base)
		case "mincost":
			strategy = NewMinCostStrategy(base)
		default:
			return nil, perrors.Errorf(perrors.CodeInvalidArgument, "unknown routing strategy %q", name)
		}
		rs = append(rs, NewDQLRouter(base, strategy, cfg.FreshnessEnabled))
	}
	return NewUniversal(rs...), nil
}

// Propose collects the proposals of all routers. An error from any router
// is fatal for the query.
func (u *Universal) Propose(ctx context.Context, root algebra.Node, transaction *txn.Transaction, info *queryinfo.QueryInformation) ([]Proposal, error) {
	var proposals []Proposal
	for _, router := range u.routers {
		builders, err := router.Route(ctx, root, transaction, info)
		if err != nil {
			return nil, perrors.Wrapf(err, "router %s", router.Name())
		}
		if len(builders) == 0 {
			continue
		}
		proposals = append(proposals, Proposal{Router: router.Name(), Builders: builders})
	}
	return proposals, nil
}

// ResetCaches resets every registered router.
func (u *Universal) ResetCaches() {
	for _, router := range u.routers {
		router.ResetCaches()
	}
}
