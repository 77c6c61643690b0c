package explain

import "runtime"

// Config holds the tunables for an Explain invocation: how many
// threads to shard rows across, how far to explore, and whether to
// emit per-order diagnostics.
type Config struct {
	// MaxOrder bounds subgroup arity; must be in [1, 3].
	MaxOrder int
	// NumThreads is the number of row-shard workers per order. Must
	// be >= 1; defaults to runtime.NumCPU().
	NumThreads int
	// Verbose gates per-order candidate-count and timing logs.
	Verbose bool
	// HashTableCapacityMultiplier scales each thread's per-order
	// FastFixedHashTable above its candidate bound (shard rows times
	// the number of column combinations of that order), trading memory
	// for a lower load factor (and therefore fewer probe collisions).
	HashTableCapacityMultiplier int
}

// DefaultConfig returns a Config with MaxOrder 3, one worker per CPU,
// a 4x hash table capacity multiplier, and verbose logging off.
func DefaultConfig() Config {
	return Config{
		MaxOrder:                    3,
		NumThreads:                  runtime.NumCPU(),
		Verbose:                     false,
		HashTableCapacityMultiplier: 4,
	}
}

func (c Config) normalize() Config {
	if c.NumThreads < 1 {
		c.NumThreads = 1
	}
	if c.HashTableCapacityMultiplier < 1 {
		c.HashTableCapacityMultiplier = 4
	}
	return c
}
