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

package stats

import (
	"strings"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
)

// PromBackend exposes every published metric as a Prometheus collector.
type PromBackend struct {
	namespace string
}

var _ prometheus.Collector = (*PromBackend)(nil)

// InitPrometheusBackend registers a collector for the published metrics on
// the given registerer under the given namespace.
func InitPrometheusBackend(reg prometheus.Registerer, namespace string) *PromBackend {
	be := &PromBackend{namespace: namespace}
	reg.MustRegister(be)
	return be
}

// Describe implements prometheus.Collector. The metric set is dynamic, so
// the collector is unchecked and describes nothing.
func (be *PromBackend) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (be *PromBackend) Collect(ch chan<- prometheus.Metric) {
	for name, v := range snapshot() {
		fqName := prometheus.BuildFQName(be.namespace, "", toSnakeCase(name))
		switch st := v.(type) {
		case *Gauge:
			desc := prometheus.NewDesc(fqName, st.Help(), nil, nil)
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(st.Get()))
		case *Counter:
			desc := prometheus.NewDesc(fqName, st.Help(), nil, nil)
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(st.Get()))
		case *CountersWithSingleLabel:
			desc := prometheus.NewDesc(fqName, st.Help(), []string{toSnakeCase(st.LabelName())}, nil)
			for tag, count := range st.Counts() {
				ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(count), tag)
			}
		}
	}
}

// toSnakeCase converts CamelCase metric names to the snake_case expected by
// Prometheus.
func toSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
