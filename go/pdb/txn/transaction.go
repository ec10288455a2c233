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

// Package txn carries the slice of transaction state the router reads and
// writes. The real transaction manager lives upstream; the router only
// consumes this contract.
package txn

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/freshness"
)

// Transaction is the router-visible state of one transaction.
type Transaction struct {
	id string

	acceptsOutdated bool
	spec            *freshness.Specification

	useCache          atomic.Bool
	canceled          atomic.Bool
	freshnessDegraded atomic.Bool

	mu    sync.Mutex
	locks []any
}

// Option configures a Transaction at creation.
type Option func(*Transaction)

// AcceptsOutdated lets the transaction read stale copies within the given
// bound.
func AcceptsOutdated(spec *freshness.Specification) Option {
	return func(t *Transaction) {
		t.acceptsOutdated = true
		t.spec = spec
	}
}

// New returns a Transaction with a fresh identifier. Result caching starts
// enabled.
func New(opts ...Option) *Transaction {
	t := &Transaction{id: uuid.NewString()}
	t.useCache.Store(true)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID returns the transaction identifier. It scopes cached joined scans.
func (t *Transaction) ID() string {
	return t.id
}

// AcceptsOutdated reports whether the transaction tolerates stale copies.
func (t *Transaction) AcceptsOutdated() bool {
	return t.acceptsOutdated
}

// FreshnessSpec returns the tolerated-staleness bound, or nil when the
// transaction does not accept outdated copies.
func (t *Transaction) FreshnessSpec() *freshness.Specification {
	return t.spec
}

// SetUseCache toggles result caching for this transaction. The router
// disables it whenever a plan reads stale copies.
func (t *Transaction) SetUseCache(use bool) {
	t.useCache.Store(use)
}

// UseCache reports whether query results may be cached.
func (t *Transaction) UseCache() bool {
	return t.useCache.Load()
}

// Cancel requests that in-flight routing for this transaction stops.
func (t *Transaction) Cancel() {
	t.canceled.Store(true)
}

// Canceled reports whether Cancel was called.
func (t *Transaction) Canceled() bool {
	return t.canceled.Load()
}

// MarkFreshnessDegraded records that a freshness read fell back to the
// locking path mid-query. The transaction policy layer consults this before
// admitting later DML.
func (t *Transaction) MarkFreshnessDegraded() {
	t.freshnessDegraded.Store(true)
}

// FreshnessDegraded reports whether a freshness fallback happened.
func (t *Transaction) FreshnessDegraded() bool {
	return t.freshnessDegraded.Load()
}

// RegisterLock records an entity lock held by this transaction. The lock
// manager releases them on commit or abort.
func (t *Transaction) RegisterLock(entity any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locks = append(t.locks, entity)
}

// HoldsLock reports whether the entity was already registered.
func (t *Transaction) HoldsLock(entity any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, held := range t.locks {
		if held == entity {
			return true
		}
	}
	return false
}

// Locks returns the registered lock entities in acquisition order.
func (t *Transaction) Locks() []any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]any(nil), t.locks...)
}
