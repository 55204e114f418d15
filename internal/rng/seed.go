package rng

import (
	"os"
	"time"
)

// SeedSentinel is the driver-configuration value meaning "sample a seed
// from the wall clock mixed with the process id" (§4.2, §6).
const SeedSentinel int64 = -1

// Resolve returns seed unchanged unless it is SeedSentinel, in which case
// it mixes the current wall-clock time with the process id to produce a
// seed that is effectively unique per invocation but still fully
// deterministic once chosen (the chosen value should be logged by the
// caller so a run can be replayed).
func Resolve(seed int64) int64 {
	if seed != SeedSentinel {
		return seed
	}
	now := uint64(time.Now().UnixNano())
	pid := uint64(os.Getpid())
	mixed := now ^ (pid * 0x9E3779B97F4A7C15)
	return int64(mixed)
}

// New64 constructs a generator for the given driver seed, resolving the
// sentinel value first.
func New64(seed int64) (*MT19937_64, int64) {
	resolved := Resolve(seed)
	return New(resolved), resolved
}
