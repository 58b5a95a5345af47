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

// Package pacer implements the Rate Limiter: a token bucket governing
// dispatch of remote calls, with per-call weight proportional to file size
// and adaptive rate reduction when the remote collaborator signals
// flow-control.
package pacer

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	minRate        = 0.1
	floodBackoff   = 0.5
	growthFactor   = 1.1
	pressureWindow = 60 * time.Second
	pressureGrants = 30
	pressureWeight = 1.5
)

// Pacer is the Rate Limiter's public contract.
type Pacer interface {
	// Acquire blocks until enough tokens exist to cover weight, then spends
	// them. weight is typically WeightForSize(declaredBytes).
	Acquire(ctx context.Context, weight float64) error
	// Adjust reacts to a server response: floodWaitSeconds > 0 means the
	// remote collaborator asked us to slow down by that many seconds;
	// floodWaitSeconds == 0 reports a clean call and allows gradual growth.
	Adjust(floodWaitSeconds float64)
	// Rate returns the current tokens/second, mainly for the performance
	// CLI command and tests.
	Rate() float64
}

// WeightForSize is the cost, in tokens, of downloading a file of the given
// size: proportional to size so a handful of large transfers don't starve
// everything else queued behind them.
func WeightForSize(declaredBytes int64) float64 {
	mb := float64(declaredBytes) / (1024 * 1024)
	w := mb / 10
	if w < 1.0 {
		return 1.0
	}
	return w
}

type limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	ceiling float64

	grantsMu sync.Mutex
	grants   []time.Time // sliding window of grant timestamps, for pressure detection
}

// New builds a Pacer starting at initialRate tokens/second with the given
// burst capacity, never growing the rate back past ceiling.
func New(initialRate, burst, ceiling float64) Pacer {
	return &limiter{
		limiter: rate.NewLimiter(rate.Limit(initialRate), int(burst)),
		ceiling: ceiling,
	}
}

func (l *limiter) Acquire(ctx context.Context, weight float64) error {
	if l.underPressure() {
		weight *= pressureWeight
	}

	// rate.Limiter.WaitN requires an integer token count; round up so a
	// sub-1-token weight still costs at least one token.
	n := int(weight)
	if float64(n) < weight {
		n++
	}
	if n < 1 {
		n = 1
	}

	// WaitN rejects a request larger than the bucket's burst outright, so a
	// weight above the burst is paid in burst-sized instalments.
	for n > 0 {
		step := n
		if b := l.limiter.Burst(); b > 0 && step > b {
			step = b
		}
		if err := l.limiter.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}

	l.recordGrant()
	return nil
}

func (l *limiter) recordGrant() {
	now := time.Now()
	l.grantsMu.Lock()
	defer l.grantsMu.Unlock()

	l.grants = append(l.grants, now)
	l.grants = pruneOlderThan(l.grants, now.Add(-pressureWindow))
}

func (l *limiter) underPressure() bool {
	l.grantsMu.Lock()
	defer l.grantsMu.Unlock()

	l.grants = pruneOlderThan(l.grants, time.Now().Add(-pressureWindow))
	return len(l.grants) > pressureGrants
}

func pruneOlderThan(grants []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(grants) && grants[i].Before(cutoff) {
		i++
	}
	return grants[i:]
}

func (l *limiter) Adjust(floodWaitSeconds float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := float64(l.limiter.Limit())
	var next float64

	if floodWaitSeconds > 0 {
		next = current * floodBackoff
		if next < minRate {
			next = minRate
		}
	} else {
		next = current * growthFactor
		if next > l.ceiling {
			next = l.ceiling
		}
	}

	l.limiter.SetLimit(rate.Limit(next))
}

func (l *limiter) Rate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return float64(l.limiter.Limit())
}
