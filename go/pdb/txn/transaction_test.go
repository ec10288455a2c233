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

package txn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/freshness"
)

func TestDefaults(t *testing.T) {
	transaction := New()

	assert.NotEmpty(t, transaction.ID())
	assert.False(t, transaction.AcceptsOutdated())
	assert.Nil(t, transaction.FreshnessSpec())
	assert.True(t, transaction.UseCache())
	assert.False(t, transaction.Canceled())
	assert.False(t, transaction.FreshnessDegraded())
	assert.Empty(t, transaction.Locks())
}

func TestIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, New().ID(), New().ID())
}

func TestAcceptsOutdated(t *testing.T) {
	spec := freshness.NewDelayBound(time.Second)
	transaction := New(AcceptsOutdated(spec))

	assert.True(t, transaction.AcceptsOutdated())
	require.NotNil(t, transaction.FreshnessSpec())
	assert.Equal(t, spec, transaction.FreshnessSpec())
}

func TestFlags(t *testing.T) {
	transaction := New()

	transaction.SetUseCache(false)
	assert.False(t, transaction.UseCache())

	transaction.Cancel()
	assert.True(t, transaction.Canceled())

	transaction.MarkFreshnessDegraded()
	assert.True(t, transaction.FreshnessDegraded())
}

func TestLockRegistry(t *testing.T) {
	transaction := New()
	type entity struct{ table, partition int64 }

	e1 := entity{1, 101}
	assert.False(t, transaction.HoldsLock(e1))

	transaction.RegisterLock(e1)
	assert.True(t, transaction.HoldsLock(e1))
	assert.False(t, transaction.HoldsLock(entity{1, 102}))
	assert.Equal(t, []any{e1}, transaction.Locks())
}
