// Copyright © 2025 Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package cache implements the Identifier Cache: a bounded, concurrency-safe
// record of remote file identifiers already known to be present on disk.
package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

const DefaultCapacity = 50000

// IdentifierCache tracks which remote_file_id values have already completed
// a download. It is a correctness optimization the Discovery Pipeline uses
// to skip re-enumerating known files quickly - the Job Store remains the
// authoritative record.
type IdentifierCache interface {
	Has(remoteFileID string) bool
	Insert(remoteFileID string)
	Len() int
}

type present struct{}

// identifierCache pairs lru.Cache (which orders by recency, promoting on
// both Get and Add) with a plain set kept in sync via OnEvicted. Has reads
// the set only, so a presence check never perturbs eviction order - only
// Insert touches the lru.Cache itself.
type identifierCache struct {
	mu      sync.Mutex
	lru     *lru.Cache
	present map[string]struct{}
}

// New builds an Identifier Cache with the given capacity. A capacity <= 0
// falls back to DefaultCapacity.
func New(capacity int) IdentifierCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &identifierCache{
		lru:     lru.New(capacity),
		present: make(map[string]struct{}, capacity),
	}
	c.lru.OnEvicted = func(key lru.Key, _ interface{}) {
		delete(c.present, key.(string))
	}
	return c
}

func (c *identifierCache) Has(remoteFileID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.present[remoteFileID]
	return ok
}

func (c *identifierCache) Insert(remoteFileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.present[remoteFileID] = struct{}{}
	c.lru.Add(remoteFileID, present{})
}

func (c *identifierCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}

// CompletedIDSource is implemented by the Job Store, and is the only thing
// this package needs from it: an iterator over already-completed jobs, used
// to seed the cache at startup so a restart doesn't re-download anything.
type CompletedIDSource interface {
	IterCompletedIDs(yield func(remoteFileID string) bool) error
}

// SeedFromStore populates the cache from every COMPLETED job recorded by the
// store. Called once, during startup, before the Discovery Pipeline begins
// enumerating.
func SeedFromStore(c IdentifierCache, store CompletedIDSource) error {
	return store.IterCompletedIDs(func(remoteFileID string) bool {
		c.Insert(remoteFileID)
		return true
	})
}
