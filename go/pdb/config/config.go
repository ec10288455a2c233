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

// Package config resolves router configuration from defaults, an optional
// config file, environment variables, and command-line flags, in increasing
// order of precedence.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
)

// Keys used in config files and environment variables.
const (
	KeyScanCacheCapacity = "router.scan-cache-capacity"
	KeyStrategies        = "router.strategies"
	KeyFreshnessEnabled  = "router.freshness-enabled"
)

// Router holds the configuration of the DQL routing layer.
type Router struct {
	// ScanCacheCapacity is the maximum number of joined-scan subtrees kept
	// in the process-wide cache. 0 disables caching.
	ScanCacheCapacity int64

	// Strategies lists the placement strategies the universal router asks,
	// in order.
	Strategies []string

	// FreshnessEnabled gates the freshness routing path globally.
	FreshnessEnabled bool
}

// DefaultRouter is the configuration used when nothing is overridden.
func DefaultRouter() Router {
	return Router{
		ScanCacheCapacity: 5000,
		Strategies:        []string{"mincost", "full", "single"},
		FreshnessEnabled:  true,
	}
}

// RegisterFlags installs the router config flags on the given FlagSet and
// binds them into v.
func RegisterFlags(fs *pflag.FlagSet, v *viper.Viper) {
	def := DefaultRouter()
	fs.Int64(flagName(KeyScanCacheCapacity), def.ScanCacheCapacity, "maximum number of cached joined scans (0 disables the cache)")
	fs.StringSlice(flagName(KeyStrategies), def.Strategies, "placement strategies asked during routing, in order")
	fs.Bool(flagName(KeyFreshnessEnabled), def.FreshnessEnabled, "allow freshness-tolerant routing for transactions that accept outdated copies")

	for _, key := range []string{KeyScanCacheCapacity, KeyStrategies, KeyFreshnessEnabled} {
		_ = v.BindPFlag(key, fs.Lookup(flagName(key)))
	}
}

// New builds a viper instance with defaults and env binding applied.
// An empty configFile skips file loading.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	def := DefaultRouter()
	v.SetDefault(KeyScanCacheCapacity, def.ScanCacheCapacity)
	v.SetDefault(KeyStrategies, def.Strategies)
	v.SetDefault(KeyFreshnessEnabled, def.FreshnessEnabled)

	v.SetEnvPrefix("POLYPHENY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, perrors.Wrapf(err, "reading config file %s", configFile)
		}
	}
	return v, nil
}

// RouterFromViper extracts the router configuration from v.
func RouterFromViper(v *viper.Viper) Router {
	return Router{
		ScanCacheCapacity: v.GetInt64(KeyScanCacheCapacity),
		Strategies:        v.GetStringSlice(KeyStrategies),
		FreshnessEnabled:  v.GetBool(KeyFreshnessEnabled),
	}
}

// flagName converts a dotted config key to its flag spelling.
func flagName(key string) string {
	return strings.ReplaceAll(key, ".", "-")
}
