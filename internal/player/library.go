// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"sort"
	"strings"
	"sync"
)

// Library is a registry of named player constructors. A name that was never
// registered is the equivalent of a library that failed to load.
type Library struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewLibrary returns an empty registry.
func NewLibrary() *Library {
	return &Library{ctors: make(map[string]Constructor)}
}

// Register adds or replaces the constructor for name. A nil constructor
// removes the entry.
func (l *Library) Register(name string, ctor Constructor) {
	key := normalizeName(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	if ctor == nil {
		delete(l.ctors, key)
		return
	}
	l.ctors[key] = ctor
}

// Lookup returns the constructor registered under name.
func (l *Library) Lookup(name string) (Constructor, bool) {
	if l == nil {
		return nil, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	ctor, ok := l.ctors[normalizeName(name)]
	return ctor, ok
}

// Names lists registered drivers in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.ctors))
	for name := range l.ctors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
