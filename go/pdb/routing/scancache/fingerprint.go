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
	"encoding/binary"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/catalog"
)

// Fingerprint produces a stable key for a distribution: equal
// partition-to-placement-list mappings (order sensitive within a list)
// fingerprint identically, distinct mappings do not.
func Fingerprint(d catalog.PlacementDistribution) string {
	partitions := make([]catalog.PartitionID, 0, len(d))
	for pid := range d {
		partitions = append(partitions, pid)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	h := xxhash.New()
	var buf [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}

	writeInt(int64(len(partitions)))
	for _, pid := range partitions {
		writeInt(int64(pid))
		placements := d[pid]
		writeInt(int64(len(placements)))
		for _, cp := range placements {
			writeInt(int64(cp.Table))
			writeInt(int64(cp.Column))
			writeInt(int64(cp.Store))
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
