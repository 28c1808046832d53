package shard

import "hash/fnv"

/*
This file decides HOW a cache key is assigned to a shard.
If every key landed in the same shard, that shard's lock would become a bottleneck.
*/

/*
Selector is the interface that decides which shard should handle a given key.
It must be deterministic: the same key always maps to the same shard,
otherwise per-key operations would stop being linearizable.
*/
type Selector interface {
	Select(string, []*Shard) *Shard
}

/*
HashSelector spreads keys with FNV-1a.
The shard count must be a power of two (NewShards guarantees it).
*/
type HashSelector struct{}

// hash converts a string key into a number. FNV is a fast, non-cryptographic hash.
func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (HashSelector) Select(key string, shards []*Shard) *Shard {
	idx := hash(key) & uint32(len(shards)-1)
	return shards[idx]
}
