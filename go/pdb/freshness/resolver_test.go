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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
)

// Two partitions on three stores. Store 1 carries the primaries, stores 2
// and 3 carry secondaries with different staleness.
const resolverFixture = `
tables:
  - id: 4
    name: inventory
    supportsOutdated: true
    partition:
      kind: RANGE
      column: 41
    columns:
      - {id: 41, name: id}
      - {id: 42, name: qty}
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
      - {partition: 401, store: 3, role: OUTDATED, delayMs: 900}
      - {partition: 402, store: 1, role: PRIMARY}
      - {partition: 402, store: 2, role: REFRESHABLE, delayMs: 300}
      - {partition: 402, store: 3, role: OUTDATED, delayMs: 2000}
`

func loadResolver(t *testing.T) (*Resolver, *catalog.Table) {
	t.Helper()
	snap, err := catalog.Parse([]byte(resolverFixture))
	require.NoError(t, err)
	table, err := snap.GetTable(4)
	require.NoError(t, err)
	return NewResolver(snap), table
}

func TestSpecificationSatisfied(t *testing.T) {
	m := catalog.StalenessMetric{Delay: 500 * time.Millisecond, VersionLag: 3, UpdateLag: 10}

	assert.True(t, NewDelayBound(time.Second).Satisfied(m))
	assert.False(t, NewDelayBound(100*time.Millisecond).Satisfied(m))
	assert.True(t, NewVersionBound(3).Satisfied(m))
	assert.False(t, NewVersionBound(2).Satisfied(m))
	assert.True(t, NewUpdateBound(10).Satisfied(m))
	assert.False(t, NewUpdateBound(9).Satisfied(m))
}

func TestCandidatesOrderedFreshestFirst(t *testing.T) {
	r, table := loadResolver(t)

	candidates, err := r.CandidatePartitionPlacements(table, []catalog.PartitionID{401}, NewDelayBound(time.Second))
	require.NoError(t, err)
	require.Len(t, candidates[401], 2)
	assert.Equal(t, catalog.StoreID(2), candidates[401][0].Store)
	assert.Equal(t, catalog.StoreID(3), candidates[401][1].Store)
}

func TestCandidatesExcludePrimary(t *testing.T) {
	r, table := loadResolver(t)

	candidates, err := r.CandidatePartitionPlacements(table, []catalog.PartitionID{401, 402}, NewDelayBound(time.Hour))
	require.NoError(t, err)
	for _, pps := range candidates {
		for _, pp := range pps {
			assert.NotEqual(t, catalog.RolePrimary, pp.Role)
		}
	}
}

func TestInsufficientWhenOnePartitionHasNoCandidate(t *testing.T) {
	r, table := loadResolver(t)

	// 200ms admits store 2 for partition 401 but nothing for 402.
	_, err := r.CandidatePartitionPlacements(table, []catalog.PartitionID{401, 402}, NewDelayBound(200*time.Millisecond))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientFreshness))
}

func TestDistributionsShrinkAsBoundTightens(t *testing.T) {
	r, table := loadResolver(t)
	columns := []catalog.ColumnID{41, 42}
	partitions := []catalog.PartitionID{401, 402}

	distributionsFor := func(bound time.Duration) []catalog.PlacementDistribution {
		candidates, err := r.CandidatePartitionPlacements(table, partitions, NewDelayBound(bound))
		if err != nil {
			return nil
		}
		distributions, err := r.CandidateColumnDistributions(candidates, table, columns)
		if err != nil {
			return nil
		}
		return distributions
	}

	loose := distributionsFor(time.Hour)
	mid := distributionsFor(500 * time.Millisecond)
	tight := distributionsFor(50 * time.Millisecond)

	require.Len(t, loose, 2)
	require.Len(t, mid, 1)
	require.Nil(t, tight)

	// The freshest distribution reads both partitions from store 2.
	best := loose[0]
	for _, pid := range partitions {
		require.Len(t, best[pid], 2)
		for _, cp := range best[pid] {
			assert.Equal(t, catalog.StoreID(2), cp.Store)
		}
	}
	// The alternative falls back to store 3.
	alt := loose[1]
	assert.Equal(t, catalog.StoreID(3), alt[401][0].Store)
}

func TestDistributionCoversAllColumns(t *testing.T) {
	r, table := loadResolver(t)

	candidates, err := r.CandidatePartitionPlacements(table, []catalog.PartitionID{401}, NewDelayBound(time.Second))
	require.NoError(t, err)
	distributions, err := r.CandidateColumnDistributions(candidates, table, []catalog.ColumnID{41, 42})
	require.NoError(t, err)

	for _, d := range distributions {
		got := map[catalog.ColumnID]bool{}
		for _, cp := range d[401] {
			got[cp.Column] = true
		}
		assert.True(t, got[41] && got[42])
	}
}
