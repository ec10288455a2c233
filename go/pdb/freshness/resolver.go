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

package freshness

import (
	"sort"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
)

// ErrInsufficientFreshness is returned when no placement combination can
// serve the query within the tolerated staleness. The router catches it and
// falls back to locking reads on the primaries.
var ErrInsufficientFreshness = perrors.New(perrors.CodeFailedPrecondition, "insufficient freshness options")

// Resolver selects placements that satisfy a staleness bound.
type Resolver struct {
	cat catalog.Catalog
}

// NewResolver returns a Resolver reading the given catalog.
func NewResolver(cat catalog.Catalog) *Resolver {
	return &Resolver{cat: cat}
}

// CandidatePartitionPlacements returns, per required partition, the
// secondary placements whose staleness is within the bound, ordered
// freshest first with ties broken by store ID. It fails with
// ErrInsufficientFreshness as soon as one required partition has no
// candidate.
func (r *Resolver) CandidatePartitionPlacements(
	table *catalog.Table,
	partitionsNeeded []catalog.PartitionID,
	spec *Specification,
) (map[catalog.PartitionID][]catalog.PartitionPlacement, error) {
	candidates := make(map[catalog.PartitionID][]catalog.PartitionPlacement, len(partitionsNeeded))
	for _, pid := range partitionsNeeded {
		placements, err := r.cat.PartitionPlacementsOf(pid)
		if err != nil {
			return nil, err
		}

		var qualifying []catalog.PartitionPlacement
		for _, pp := range placements {
			if pp.Role == catalog.RolePrimary {
				continue
			}
			if spec.Satisfied(pp.Staleness) {
				qualifying = append(qualifying, pp)
			}
		}
		if len(qualifying) == 0 {
			return nil, ErrInsufficientFreshness
		}

		sort.SliceStable(qualifying, func(i, j int) bool {
			ri, rj := spec.rank(qualifying[i].Staleness), spec.rank(qualifying[j].Staleness)
			if ri != rj {
				return ri < rj
			}
			return qualifying[i].Store < qualifying[j].Store
		})
		candidates[pid] = qualifying
	}
	return candidates, nil
}

// CandidateColumnDistributions turns partition placement candidates into
// column placement distributions covering the needed columns. The first
// distribution uses the freshest candidate per partition; a second one is
// produced from the next-best candidates when every partition has an
// alternative. Per partition, stores are consulted in candidate order until
// the column set is covered.
func (r *Resolver) CandidateColumnDistributions(
	candidates map[catalog.PartitionID][]catalog.PartitionPlacement,
	table *catalog.Table,
	columnsNeeded []catalog.ColumnID,
) ([]catalog.PlacementDistribution, error) {
	columnPlacements, err := r.cat.PlacementsOf(table.ID)
	if err != nil {
		return nil, err
	}
	byStore := make(map[catalog.StoreID]map[catalog.ColumnID]catalog.ColumnPlacement)
	for _, cp := range columnPlacements {
		if byStore[cp.Store] == nil {
			byStore[cp.Store] = make(map[catalog.ColumnID]catalog.ColumnPlacement)
		}
		byStore[cp.Store][cp.Column] = cp
	}

	partitions := make([]catalog.PartitionID, 0, len(candidates))
	for pid := range candidates {
		partitions = append(partitions, pid)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	maxRank := 1
	for _, pid := range partitions {
		if len(candidates[pid]) < 2 {
			maxRank = 0
			break
		}
	}

	var distributions []catalog.PlacementDistribution
	for rank := 0; rank <= maxRank; rank++ {
		distribution := make(catalog.PlacementDistribution, len(partitions))
		feasible := true
		for _, pid := range partitions {
			placements := r.coverPartition(candidates[pid], rank, byStore, columnsNeeded)
			if placements == nil {
				feasible = false
				break
			}
			distribution[pid] = placements
		}
		if feasible {
			distributions = append(distributions, distribution)
		}
	}

	if len(distributions) == 0 {
		return nil, ErrInsufficientFreshness
	}
	return distributions, nil
}

// coverPartition assembles the ordered column placement list for one
// partition, starting from the candidate at startIdx and walking further
// candidates until every needed column is placed. Returns nil when the
// candidates cannot cover the column set.
func (r *Resolver) coverPartition(
	candidates []catalog.PartitionPlacement,
	startIdx int,
	byStore map[catalog.StoreID]map[catalog.ColumnID]catalog.ColumnPlacement,
	columnsNeeded []catalog.ColumnID,
) []catalog.ColumnPlacement {
	uncovered := make(map[catalog.ColumnID]bool, len(columnsNeeded))
	for _, c := range columnsNeeded {
		uncovered[c] = true
	}

	var placements []catalog.ColumnPlacement
	for i := startIdx; i < len(candidates) && len(uncovered) > 0; i++ {
		store := candidates[i].Store
		for _, c := range columnsNeeded {
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
		return nil
	}
	return placements
}
