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

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/algebra"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/config"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/freshness"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/locks"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/log"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing/routers"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/routing/scancache"
	"github.com/Slayzur02/Polypheny-DB/go/pdb/txn"
)

var (
	catalogFile     string
	queryFile       string
	configFile      string
	acceptsOutdated bool
	maxDelay        time.Duration

	cfgViper *viper.Viper

	rootCmd = &cobra.Command{
		Use:   "polyroute",
		Short: "Route a query description against a catalog snapshot and print the candidate plans.",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&catalogFile, "catalog", "", "catalog snapshot file (YAML or JSON)")
	rootCmd.Flags().StringVar(&queryFile, "query", "", "query description file (JSON)")
	rootCmd.Flags().StringVar(&configFile, "config", "", "router config file")
	rootCmd.Flags().BoolVar(&acceptsOutdated, "accepts-outdated", false, "route as a freshness-tolerant transaction")
	rootCmd.Flags().DurationVar(&maxDelay, "max-delay", time.Second, "tolerated staleness for --accepts-outdated")
	_ = rootCmd.MarkFlagRequired("catalog")
	_ = rootCmd.MarkFlagRequired("query")

	log.RegisterFlags(rootCmd.PersistentFlags())
	cfgViper, _ = config.New("")
	config.RegisterFlags(rootCmd.Flags(), cfgViper)
}

func run(cmd *cobra.Command, _ []string) error {
	if err := log.Init(cmd.PersistentFlags()); err != nil {
		return err
	}

	if configFile != "" {
		cfgViper.SetConfigFile(configFile)
		if err := cfgViper.ReadInConfig(); err != nil {
			return err
		}
	}
	cfg := config.RouterFromViper(cfgViper)

	snap, err := catalog.LoadFile(catalogFile)
	if err != nil {
		return err
	}

	queryData, err := os.ReadFile(queryFile)
	if err != nil {
		return err
	}
	root, info, err := parseQuery(queryData)
	if err != nil {
		return err
	}

	base := routers.NewBaseRouter(snap, scancache.New(cfg.ScanCacheCapacity), locks.NewManager())
	universal, err := routers.NewUniversalFromConfig(base, cfg)
	if err != nil {
		return err
	}

	opts := []txn.Option{}
	if acceptsOutdated {
		opts = append(opts, txn.AcceptsOutdated(freshness.NewDelayBound(maxDelay)))
	}
	transaction := txn.New(opts...)

	proposals, err := universal.Propose(cmd.Context(), root, transaction, info)
	if err != nil {
		return err
	}
	if len(proposals) == 0 {
		fmt.Println("no router proposed a plan")
		return nil
	}

	for _, proposal := range proposals {
		for i, builder := range proposal.Builders {
			plan, err := builder.Build()
			if err != nil {
				return err
			}
			fmt.Printf("--- %s, candidate %d ---\n", proposal.Router, i+1)
			fmt.Print(formatPlan(plan))
		}
	}
	if !transaction.UseCache() {
		fmt.Println("note: result caching disabled (stale reads)")
	}
	return nil
}

func formatPlan(plan *routing.Plan) string {
	out := algebra.Format(plan.Root)
	for id, d := range plan.Physical {
		out += fmt.Sprintf("scan %d routed to %d partition(s)\n", id, len(d))
	}
	return out
}
