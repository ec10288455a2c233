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

// Package stats publishes counters and gauges for the routing core. Values
// are kept in-process; the Prometheus backend in prometheus.go exposes them
// for scraping.
package stats

import (
	"sync"
	"sync/atomic"
)

// Variable is the interface implemented by all published metrics.
type Variable interface {
	Help() string
}

var (
	mu        sync.Mutex
	published = make(map[string]Variable)
)

func publish(name string, v Variable) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := published[name]; ok {
		panic("stats: duplicate metric name " + name)
	}
	published[name] = v
}

// snapshot returns a copy of the published metric map.
func snapshot() map[string]Variable {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]Variable, len(published))
	for name, v := range published {
		out[name] = v
	}
	return out
}

// ResetAll unpublishes every metric. Used by tests that set up metrics
// more than once in the same process.
func ResetAll() {
	mu.Lock()
	defer mu.Unlock()
	published = make(map[string]Variable)
}

// Counter is a monotonically increasing metric.
type Counter struct {
	i    atomic.Int64
	help string
}

// NewCounter returns a new Counter, published under name if name is set.
func NewCounter(name string, help string) *Counter {
	v := &Counter{help: help}
	if name != "" {
		publish(name, v)
	}
	return v
}

// Add adds the provided value to the Counter.
func (v *Counter) Add(delta int64) {
	v.i.Add(delta)
}

// Reset resets the counter value to 0.
func (v *Counter) Reset() {
	v.i.Store(0)
}

// Get returns the value.
func (v *Counter) Get() int64 {
	return v.i.Load()
}

// Help returns the help string.
func (v *Counter) Help() string {
	return v.help
}

// Gauge is an unlabeled metric whose values can go up and down.
type Gauge struct {
	Counter
}

// NewGauge creates a new Gauge and publishes it if name is set.
func NewGauge(name string, help string) *Gauge {
	v := &Gauge{Counter: Counter{help: help}}
	if name != "" {
		publish(name, v)
	}
	return v
}

// Set sets the value.
func (v *Gauge) Set(value int64) {
	v.Counter.i.Store(value)
}

// CountersWithSingleLabel tracks multiple counter values, keyed by a single
// label.
type CountersWithSingleLabel struct {
	mu     sync.RWMutex
	counts map[string]*int64
	help   string
	label  string
}

// NewCountersWithSingleLabel creates a new CountersWithSingleLabel and
// publishes it if name is set. Known tags can be pre-initialized to zero.
func NewCountersWithSingleLabel(name, help, label string, tags ...string) *CountersWithSingleLabel {
	v := &CountersWithSingleLabel{
		counts: make(map[string]*int64),
		help:   help,
		label:  label,
	}
	for _, tag := range tags {
		v.counts[tag] = new(int64)
	}
	if name != "" {
		publish(name, v)
	}
	return v
}

// Add adds a value to a named counter.
func (c *CountersWithSingleLabel) Add(tag string, delta int64) {
	a := c.getValueAddr(tag)
	atomic.AddInt64(a, delta)
}

// Counts returns a copy of the Counters' map.
func (c *CountersWithSingleLabel) Counts() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counts := make(map[string]int64, len(c.counts))
	for k, a := range c.counts {
		counts[k] = atomic.LoadInt64(a)
	}
	return counts
}

// Help returns the help string.
func (c *CountersWithSingleLabel) Help() string {
	return c.help
}

// LabelName returns the label name.
func (c *CountersWithSingleLabel) LabelName() string {
	return c.label
}

func (c *CountersWithSingleLabel) getValueAddr(tag string) *int64 {
	c.mu.RLock()
	a, ok := c.counts[tag]
	c.mu.RUnlock()
	if ok {
		return a
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok = c.counts[tag]
	if !ok {
		a = new(int64)
		c.counts[tag] = a
	}
	return a
}
