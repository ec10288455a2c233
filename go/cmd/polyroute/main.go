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

// polyroute routes a query description against a catalog snapshot offline
// and prints the candidate physical plans. It exists to inspect and debug
// routing decisions without a running system.
package main

import (
	"os"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/log"
)

func main() {
	defer log.Flush()
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
