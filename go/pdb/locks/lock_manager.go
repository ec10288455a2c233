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

// Package locks provides the entity lock manager the router acquires read
// locks through. Readers take a shared global schema lock plus shared locks
// on every (table, partition) entity they touch; DDL takes the global lock
// exclusively.
package locks

import (
	"sync"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
)

// ErrDeadlock is returned when granting a lock would close a wait cycle.
// The router surfaces it; the transaction layer decides whether to retry.
var ErrDeadlock = perrors.New(perrors.CodeAborted, "deadlock detected while acquiring entity lock")

// EntityID identifies a lockable entity. Partition-level entities carry
// both IDs; the global schema lock is table -1 with partition -1.
type EntityID struct {
	Table     catalog.TableID
	Partition catalog.PartitionID
}

// GlobalSchemaLock serializes readers against schema-changing DDL.
var GlobalSchemaLock = EntityID{Table: -1, Partition: -1}

// Mode is the lock mode.
type Mode int

const (
	// Shared locks are compatible with each other.
	Shared Mode = iota
	// Exclusive locks are incompatible with everything.
	Exclusive
)

type entry struct {
	holders map[string]Mode
}

// Manager is an in-process lock manager with wait-for-graph deadlock
// detection. Waiters block until granted or until a cycle is found.
type Manager struct {
	mu   deadlock.Mutex
	cond *sync.Cond

	entries map[EntityID]*entry

	// waitsFor records which transactions each blocked transaction is
	// waiting on, for cycle detection.
	waitsFor map[string]map[string]bool
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	m := &Manager{
		entries:  make(map[EntityID]*entry),
		waitsFor: make(map[string]map[string]bool),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Lock blocks until the transaction holds the entity in the given mode.
// Lock is reentrant: holding an equal or stronger mode is a no-op. It fails
// with ErrDeadlock when waiting would close a cycle.
func (m *Manager) Lock(txnID string, e EntityID, mode Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		blockers := m.conflicting(txnID, e, mode)
		if len(blockers) == 0 {
			break
		}

		m.addEdges(txnID, blockers)
		if m.cycleFrom(txnID, map[string]bool{}) {
			m.clearEdges(txnID)
			return ErrDeadlock
		}
		m.cond.Wait()
		m.clearEdges(txnID)
	}

	ent, ok := m.entries[e]
	if !ok {
		ent = &entry{holders: make(map[string]Mode)}
		m.entries[e] = ent
	}
	if held, ok := ent.holders[txnID]; !ok || mode > held {
		ent.holders[txnID] = mode
	}
	return nil
}

// Unlock releases one entity held by the transaction.
func (m *Manager) Unlock(txnID string, e EntityID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ent, ok := m.entries[e]; ok {
		delete(ent.holders, txnID)
		if len(ent.holders) == 0 {
			delete(m.entries, e)
		}
	}
	m.cond.Broadcast()
}

// ReleaseAll releases every entity held by the transaction. The
// transaction layer calls it on commit and on abort.
func (m *Manager) ReleaseAll(txnID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for e, ent := range m.entries {
		delete(ent.holders, txnID)
		if len(ent.holders) == 0 {
			delete(m.entries, e)
		}
	}
	delete(m.waitsFor, txnID)
	m.cond.Broadcast()
}

// Holders returns the transactions holding the entity, for tests and
// introspection.
func (m *Manager) Holders(e EntityID) map[string]Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Mode)
	if ent, ok := m.entries[e]; ok {
		for txnID, mode := range ent.holders {
			out[txnID] = mode
		}
	}
	return out
}

// conflicting returns the holders that prevent the transaction from taking
// the entity in the given mode.
func (m *Manager) conflicting(txnID string, e EntityID, mode Mode) []string {
	ent, ok := m.entries[e]
	if !ok {
		return nil
	}
	if held, ok := ent.holders[txnID]; ok && held >= mode {
		return nil
	}

	var blockers []string
	for holder, held := range ent.holders {
		if holder == txnID {
			continue
		}
		if mode == Exclusive || held == Exclusive {
			blockers = append(blockers, holder)
		}
	}
	return blockers
}

func (m *Manager) addEdges(txnID string, blockers []string) {
	edges, ok := m.waitsFor[txnID]
	if !ok {
		edges = make(map[string]bool)
		m.waitsFor[txnID] = edges
	}
	for _, b := range blockers {
		edges[b] = true
	}
}

func (m *Manager) clearEdges(txnID string) {
	delete(m.waitsFor, txnID)
}

// cycleFrom reports whether start can reach itself through wait-for edges.
func (m *Manager) cycleFrom(start string, visited map[string]bool) bool {
	var walk func(node string) bool
	walk = func(node string) bool {
		for next := range m.waitsFor[node] {
			if next == start {
				return true
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			if walk(next) {
				return true
			}
		}
		return false
	}
	return walk(start)
}
