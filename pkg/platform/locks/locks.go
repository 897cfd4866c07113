// Package locks provides a keyed mutex for per-namespace serialization.
//
// Mutations that observe graph state and then act on it (release, add
// import, deprecate) lock every namespace in their footprint so cycle and
// lifecycle checks see a consistent subgraph. Unrelated namespaces proceed
// independently. Keys are always acquired in sorted order so two mutations
// with overlapping footprints cannot deadlock.
package locks

import (
	"sort"
	"sync"
)

// Keyed is a set of named mutexes. The zero value is not usable; call New.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty keyed mutex set.
func New() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

// Acquire locks every key and returns a release function. Keys are
// deduplicated and locked in sorted order.
func (k *Keyed) Acquire(keys ...string) func() {
	sorted := dedupeSorted(keys)

	entries := make([]*entry, 0, len(sorted))
	for _, key := range sorted {
		entries = append(entries, k.retain(key))
	}
	for _, e := range entries {
		e.mu.Lock()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Unlock in reverse acquisition order.
			for i := len(entries) - 1; i >= 0; i-- {
				entries[i].mu.Unlock()
			}
			for _, key := range sorted {
				k.release(key)
			}
		})
	}
}

func (k *Keyed) retain(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	return e
}

func (k *Keyed) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

func dedupeSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
