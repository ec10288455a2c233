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

package catalog

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"

	"github.com/Slayzur02/Polypheny-DB/go/pdb/perrors"
)

// HashBucket computes the bucket a partition key falls into for a
// hash-partitioned table.
func HashBucket(key int64, numBuckets uint32) uint32 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(key))
	return murmur3.Sum32(buf[:]) % numBuckets
}

// ResolveKeyPartition returns the partition of a horizontally partitioned
// table that owns the given key value. Range partitions own [MinKey, MaxKey);
// hash partitions own a murmur3 bucket.
func ResolveKeyPartition(cat Catalog, table TableID, key int64) (PartitionID, error) {
	t, err := cat.GetTable(table)
	if err != nil {
		return 0, err
	}
	if !t.Partition.IsHorizontal() {
		return 0, perrors.Errorf(perrors.CodeInvalidArgument, "table %d is not horizontally partitioned", table)
	}

	partitions, err := cat.PartitionsOf(table)
	if err != nil {
		return 0, err
	}

	switch t.Partition.Kind {
	case PartitionHash:
		bucket := HashBucket(key, t.Partition.NumBuckets)
		for _, p := range partitions {
			if p.Bucket == bucket {
				return p.ID, nil
			}
		}
	default:
		for _, p := range partitions {
			if p.MinKey != nil && key < *p.MinKey {
				continue
			}
			if p.MaxKey != nil && key >= *p.MaxKey {
				continue
			}
			return p.ID, nil
		}
	}
	return 0, perrors.Errorf(perrors.CodeInternal, "no partition of table %d owns key %d", table, key)
}
