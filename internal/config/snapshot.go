package config

import (
	"sort"
	"sync/atomic"
)

// Snapshot is an immutable view of the runtime-refreshable configuration:
// today that is just the known-domain set used by the title parser. Workers
// read whole snapshots; a background cycle swaps in replacements.
type Snapshot struct {
	domains map[string]bool
}

// NewSnapshot builds a snapshot from a domain list.
func NewSnapshot(domains []string) *Snapshot {
	set := make(map[string]bool, len(domains))
	for _, d := range domains {
		set[d] = true
	}
	return &Snapshot{domains: set}
}

// KnownDomain reports whether name is in the domain allow-list.
func (s *Snapshot) KnownDomain(name string) bool {
	return s.domains[name]
}

// Domains returns the allow-list in sorted order.
func (s *Snapshot) Domains() []string {
	out := make([]string, 0, len(s.domains))
	for d := range s.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Store holds the current Snapshot and swaps it atomically on refresh.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a Store seeded from the static config.
func NewStore(cfg *Config) *Store {
	st := &Store{}
	st.current.Store(NewSnapshot(cfg.Domains))
	return st
}

// Current returns the active snapshot. Never nil after NewStore.
func (st *Store) Current() *Snapshot {
	return st.current.Load()
}

// Replace swaps in a new snapshot built from domains. In-flight readers
// keep the snapshot they already loaded.
func (st *Store) Replace(domains []string) {
	st.current.Store(NewSnapshot(domains))
}
