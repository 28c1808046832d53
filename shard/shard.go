package shard

/*
This file defines what a "Shard" is. A shard is a small, independent piece of the cache.
Instead of one big map behind one big lock, keys are split across shards, and each shard:
- Holds some portion of the keys
- Has its own lock

Keys in different shards never contend with each other.
*/

type Shard struct {

	// Store holds the key → entry data for this shard.
	Store ShardStore
}

func NewShard() *Shard {
	return &Shard{Store: NewMapStore()}
}

// NewShards builds n shards, rounding n up to a power of two so that
// HashSelector can mask instead of taking a modulus.
func NewShards(n int) []*Shard {
	n = nextPowerOfTwo(n)
	s := make([]*Shard, n)
	for i := range s {
		s[i] = NewShard()
	}
	return s
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
