package models

import (
	"sort"
	"strconv"
	"time"
)

// DefaultKeyPrefix is the namespace prefix of every record key.
const DefaultKeyPrefix = "log:"

// StorageKey builds "<prefix><epoch-ms>" for t. Two writes within the same
// millisecond produce the same key and the later one wins.
func StorageKey(prefix string, t time.Time) string {
	return prefix + strconv.FormatInt(t.UnixMilli(), 10)
}

// LessKey orders keys chronologically. Numeric suffixes of different widths
// compare by length first, so "log:999" sorts before "log:1000".
func LessKey(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// SortKeys sorts keys oldest-first in place.
func SortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		return LessKey(keys[i], keys[j])
	})
}
