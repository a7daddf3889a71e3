// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package kvcache contains a Starlark module for a key-value cache that lets
// bots keep state between updates.
//
// The module provides two functions:
//
//   - get(key: str) -> any | None: returns the value stored under key, or
//     None if there is no such key or the entry has expired. Reading a key
//     resets its TTL.
//   - set(key: str, value: any): stores value under key, overwriting the
//     previous value. Stored values are frozen.
//
// An entry expires when it was not read or written for longer than the TTL.
package kvcache

import (
	"context"
	"sync"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Module returns the kvcache Starlark module. Expired entries are removed in
// the background until ctx is canceled.
func Module(ctx context.Context, ttl time.Duration) *starlarkstruct.Module {
	m := &module{ttl: ttl, now: time.Now}
	go m.cleanup(ctx)
	return &starlarkstruct.Module{
		Name: "kvcache",
		Members: starlark.StringDict{
			"get": starlark.NewBuiltin("kvcache.get", m.get),
			"set": starlark.NewBuiltin("kvcache.set", m.set),
		},
	}
}

type module struct {
	ttl   time.Duration
	now   func() time.Time
	cache sync.Map // string → cacheEntry
}

type cacheEntry struct {
	value        starlark.Value
	lastAccessed time.Time
}

func (m *module) cleanup(ctx context.Context) {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cache.Range(func(key, val any) bool {
				if m.expired(val.(cacheEntry)) {
					m.cache.Delete(key)
				}
				return true
			})
		case <-ctx.Done():
			return
		}
	}
}

func (m *module) expired(e cacheEntry) bool { return m.now().Sub(e.lastAccessed) > m.ttl }

func (m *module) get(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "key", &key); err != nil {
		return nil, err
	}

	val, ok := m.cache.Load(key)
	if !ok {
		return starlark.None, nil
	}
	entry := val.(cacheEntry)
	if m.expired(entry) {
		m.cache.CompareAndDelete(key, val)
		return starlark.None, nil
	}

	m.cache.CompareAndSwap(key, val, cacheEntry{value: entry.value, lastAccessed: m.now()})
	return entry.value, nil
}

func (m *module) set(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		key   string
		value starlark.Value
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "key", &key, "value", &value); err != nil {
		return nil, err
	}
	// Values are shared between threads handling different updates.
	value.Freeze()
	m.cache.Store(key, cacheEntry{value: value, lastAccessed: m.now()})
	return starlark.None, nil
}
