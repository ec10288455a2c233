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

// Package scancache memoizes joined-scan subtrees keyed by a transaction
// scope and a placement distribution fingerprint. The cache is process-wide
// and concurrent; a DDL anywhere invalidates it globally.
package scancache

import (
	"sync"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
)

// BuildFunc materializes the physical subtree for a distribution. It runs
// at most once per (scope, fingerprint) while the result stays cached.
type BuildFunc func() (algebra.Node, error)

// Cache memoizes joined-scan subtrees. Concurrent requests for the same key
// share one build; requests for distinct keys proceed in parallel.
type Cache struct {
	capacity int64
	store    *gocache.Cache
	group    singleflight.Group

	// generation is bumped by InvalidateAll. Builds started under an
	// older generation complete but are not inserted.
	generation atomic.Uint64

	// inflight lets InvalidateAll wait for running builds.
	inflight sync.WaitGroup
}

// New returns a Cache holding at most capacity subtrees. A zero capacity
// disables memoization entirely; BuildScan then always builds.
func New(capacity int64) *Cache {
	c := &Cache{capacity: capacity}
	if capacity > 0 {
		c.store = gocache.New(gocache.NoExpiration, 0)
	}
	return c
}

// BuildScan returns the physical subtree for the distribution, building it
// through build on a miss. Returned trees are structural copies; callers
// may splice them into plans freely.
func (c *Cache) BuildScan(scope string, d catalog.PlacementDistribution, build BuildFunc) (algebra.Node, error) {
	if c.store == nil {
		metrics().builds.Add(1)
		return build()
	}

	key := scope + "/" + Fingerprint(d)
	if cached, ok := c.store.Get(key); ok {
		metrics().hits.Add(1)
		return algebra.CloneTree(cached.(algebra.Node)), nil
	}
	metrics().misses.Add(1)

	generation := c.generation.Load()
	built, err, _ := c.group.Do(key, func() (any, error) {
		c.inflight.Add(1)
		defer c.inflight.Done()

		// A caller that missed above may arrive after an earlier build for
		// the same key finished and was inserted; share that result.
		if cached, ok := c.store.Get(key); ok {
			return cached, nil
		}
		metrics().builds.Add(1)
		n, err := build()
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == generation && int64(c.store.ItemCount()) < c.capacity {
			c.store.Set(key, algebra.CloneTree(n), gocache.NoExpiration)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return algebra.CloneTree(built.(algebra.Node)), nil
}

// InvalidateAll drops every cached subtree. In-flight builds complete and
// their callers receive results, but nothing started before the
// invalidation is inserted.
func (c *Cache) InvalidateAll() {
	if c.store == nil {
		return
	}
	c.generation.Add(1)
	c.inflight.Wait()
	c.store.Flush()
	metrics().invalidations.Add(1)
}

// Len returns the number of cached subtrees.
func (c *Cache) Len() int {
	if c.store == nil {
		return 0
	}
	return c.store.ItemCount()
}
