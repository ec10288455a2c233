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

package scancache

import (
	"sync"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/stats"
)

type cacheMetrics struct {
	hits          *stats.Counter
	misses        *stats.Counter
	builds        *stats.Counter
	invalidations *stats.Counter
}

var (
	defaultMetrics *cacheMetrics
	metricsOnce    sync.Once
)

func metrics() *cacheMetrics {
	metricsOnce.Do(func() {
		defaultMetrics = &cacheMetrics{
			hits:          stats.NewCounter("ScanCacheHits", "Joined-scan cache hits."),
			misses:        stats.NewCounter("ScanCacheMisses", "Joined-scan cache misses."),
			builds:        stats.NewCounter("ScanCacheBuilds", "Joined-scan subtree builds."),
			invalidations: stats.NewCounter("ScanCacheInvalidations", "Global joined-scan cache invalidations."),
		}
	})
	return defaultMetrics
}
