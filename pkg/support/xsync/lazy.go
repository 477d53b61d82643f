// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package xsync implements some extra synchronization tools.
package xsync

import (
	"sync"
	"sync/atomic"
)

// Lazy holds a value that is constructed on first use.
//
// Concurrent callers of Get block while the constructor runs, it runs at most once per successful
// construction, and every caller observes the same value afterward (double-checked locking).
// A failed construction is not cached: the next Get calls the constructor again.
type Lazy[T any] struct {
	mu    sync.Mutex
	done  atomic.Bool
	value T
	newFn func() (T, error)
}

// NewLazy returns a Lazy that will call newFn on the first Get.
func NewLazy[T any](newFn func() (T, error)) *Lazy[T] {
	return &Lazy[T]{newFn: newFn}
}

// Get returns the value, constructing it if needed.
func (l *Lazy[T]) Get() (T, error) {
	if l.done.Load() {
		return l.value, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done.Load() {
		return l.value, nil
	}
	value, err := l.newFn()
	if err != nil {
		var zero T
		return zero, err
	}
	l.value = value
	l.done.Store(true)
	return l.value, nil
}

// Initialized reports whether the value has already been constructed.
func (l *Lazy[T]) Initialized() bool {
	return l.done.Load()
}

// Reset drops the constructed value, if any, and returns it.
// The next Get constructs a new one.
func (l *Lazy[T]) Reset() (value T, wasInitialized bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.done.Load() {
		return
	}
	value, wasInitialized = l.value, true
	var zero T
	l.value = zero
	l.done.Store(false)
	return
}
