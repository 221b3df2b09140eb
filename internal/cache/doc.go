// Package cache provides a bounded LRU cache with hit/miss accounting.
//
// The cache bounds the number of entries, not their memory. Inserting a new
// key into a full cache evicts the least recently used entry first, so Len
// never exceeds the configured capacity.
package cache
