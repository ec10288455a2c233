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

// Package freshness selects placements for transactions that tolerate
// reading stale copies, bounded by a staleness specification.
package freshness

import (
	"fmt"
	"time"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
)

// BoundKind enumerates the ways a transaction can bound tolerated
// staleness.
type BoundKind int

const (
	// BoundDelay tolerates copies at most a given duration behind.
	BoundDelay BoundKind = iota
	// BoundVersions tolerates copies at most a number of commit versions
	// behind.
	BoundVersions
	// BoundUpdates tolerates copies at most a number of row modifications
	// behind.
	BoundUpdates
)

// Specification is a tolerated-staleness bound carried by a transaction.
type Specification struct {
	Kind     BoundKind
	Delay    time.Duration
	Versions int64
	Updates  int64
}

// NewDelayBound tolerates placements at most d behind the primary.
func NewDelayBound(d time.Duration) *Specification {
	return &Specification{Kind: BoundDelay, Delay: d}
}

// NewVersionBound tolerates placements at most n commit versions behind.
func NewVersionBound(n int64) *Specification {
	return &Specification{Kind: BoundVersions, Versions: n}
}

// NewUpdateBound tolerates placements at most n row modifications behind.
func NewUpdateBound(n int64) *Specification {
	return &Specification{Kind: BoundUpdates, Updates: n}
}

// Satisfied reports whether a placement with the given staleness is within
// the bound.
func (s *Specification) Satisfied(m catalog.StalenessMetric) bool {
	switch s.Kind {
	case BoundDelay:
		return m.Delay <= s.Delay
	case BoundVersions:
		return m.VersionLag <= s.Versions
	case BoundUpdates:
		return m.UpdateLag <= s.Updates
	default:
		return false
	}
}

// rank is the staleness measure used to order candidate placements under
// this bound kind. Lower is fresher.
func (s *Specification) rank(m catalog.StalenessMetric) int64 {
	switch s.Kind {
	case BoundDelay:
		return int64(m.Delay)
	case BoundVersions:
		return m.VersionLag
	default:
		return m.UpdateLag
	}
}

func (s *Specification) String() string {
	switch s.Kind {
	case BoundDelay:
		return fmt.Sprintf("delay<=%s", s.Delay)
	case BoundVersions:
		return fmt.Sprintf("versions<=%d", s.Versions)
	default:
		return fmt.Sprintf("updates<=%d", s.Updates)
	}
}
