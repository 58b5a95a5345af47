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

// Package scheduler implements the Adaptive Scheduler: a semaphore whose
// effective permit count tracks the Resource Governor's target, plus a
// dedup map that enforces at most one in-flight transfer per remote file
// identifier.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/wastore/audiosync/common"
	"github.com/wastore/audiosync/governor"
)

const targetPollInterval = 200 * time.Millisecond

// Scheduler is the Adaptive Scheduler's public contract.
type Scheduler interface {
	// Acquire blocks until a permit is available under the governor's
	// current target and remoteFileID is not already in flight. Returns
	// false (no permit held) if remoteFileID was already in flight.
	Acquire(ctx context.Context, remoteFileID string) (acquired bool, err error)
	// Release returns the permit and clears the in-flight marker.
	Release(remoteFileID string)
	// InFlight reports how many jobs currently hold a permit.
	InFlight() int
}

type scheduler struct {
	sem *semaphore.Weighted
	gov governor.Governor

	mu       sync.Mutex
	inFlight map[string]struct{}
	held     int
}

// New builds a Scheduler backed by gov for its concurrency target. maxPermits
// is the hard ceiling the underlying semaphore is sized to; gov.Target()
// softly throttles below that ceiling as it rises and falls.
func New(gov governor.Governor, maxPermits int) Scheduler {
	return &scheduler{
		sem:      semaphore.NewWeighted(int64(maxPermits)),
		gov:      gov,
		inFlight: make(map[string]struct{}),
	}
}

func (s *scheduler) Acquire(ctx context.Context, remoteFileID string) (bool, error) {
	s.mu.Lock()
	if _, dup := s.inFlight[remoteFileID]; dup {
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()

	for {
		// Soft throttle: don't issue more permits than the current target,
		// even though the semaphore itself is sized to the hard ceiling.
		s.mu.Lock()
		belowTarget := s.held < s.gov.Target()
		s.mu.Unlock()
		if !belowTarget {
			if err := waitOrCancel(ctx); err != nil {
				return false, err
			}
			continue
		}

		if err := s.sem.Acquire(ctx, 1); err != nil {
			return false, common.NewResourceExhaustedError(err)
		}

		s.mu.Lock()
		if _, dup := s.inFlight[remoteFileID]; dup {
			s.mu.Unlock()
			s.sem.Release(1)
			return false, nil
		}
		s.inFlight[remoteFileID] = struct{}{}
		s.held++
		s.mu.Unlock()
		return true, nil
	}
}

func (s *scheduler) Release(remoteFileID string) {
	s.mu.Lock()
	if _, ok := s.inFlight[remoteFileID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.inFlight, remoteFileID)
	s.held--
	s.mu.Unlock()

	s.sem.Release(1)
}

func (s *scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

func waitOrCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(targetPollInterval):
		return nil
	}
}
