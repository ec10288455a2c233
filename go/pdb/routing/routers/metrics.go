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
	"sync"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/stats"
)

type routerMetrics struct {
	routedQueries      *stats.CountersWithSingleLabel
	freshnessFallbacks *stats.Counter
	deadlocks          *stats.Counter
}

var (
	defaultMetrics *routerMetrics
	metricsOnce    sync.Once
)

func metrics() *routerMetrics {
	metricsOnce.Do(func() {
		defaultMetrics = &routerMetrics{
			routedQueries:      stats.NewCountersWithSingleLabel("RoutedQueries", "Queries routed successfully, by strategy.", "Strategy"),
			freshnessFallbacks: stats.NewCounter("FreshnessFallbacks", "Freshness reads degraded to the locking path."),
			deadlocks:          stats.NewCounter("RoutingDeadlocks", "Deadlocks reported during lock acquisition."),
		}
	})
	return defaultMetrics
}
