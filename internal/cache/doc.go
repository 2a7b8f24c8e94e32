// Package cache implements the result cache that memoizes expensive,
// idempotent agent/tool invocations.
//
// Keys are stable fingerprints of (operation name, canonicalized
// parameters). Entries carry a per-entry TTL checked lazily on read;
// an optional periodic sweep reclaims memory. The in-process tier is a
// size-bounded LRU; an optional redis tier shares entries across
// process instances. GetOrCompute deduplicates concurrent misses on
// the same key so bursty fan-out performs at most one computation per
// key within its TTL window.
package cache
