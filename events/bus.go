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

// Package events implements the Event Bus: in-process fan-out of
// structured transfer events to any number of sinks. The prefetching,
// self-healing, email-notifier, and database-API modules mentioned in the
// original source are not part of the core loop - they are external
// consumers of this bus, not components of this package.
package events

import "time"

type Kind string

const (
	KindStarted          Kind = "started"
	KindProgress         Kind = "progress"
	KindCompleted        Kind = "completed"
	KindFailed           Kind = "failed"
	KindRateLimited      Kind = "rate_limited"
	KindRecovered        Kind = "recovered"
	KindResourcePressure Kind = "resource_pressure"
)

// Event is one structured notification about a job's lifecycle.
type Event struct {
	Kind         Kind
	RemoteFileID string
	Timestamp    time.Time

	BytesDownloaded int64
	DeclaredSize    int64
	RetryAfter      time.Duration
	Err             error
}

// Sink receives events. Implementations must not block the bus for long;
// Bus delivers on a per-sink goroutine so one slow sink cannot stall
// another, but a sink that never returns will still leak that goroutine.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Notify(e Event) { f(e) }

// Bus is the Event Bus's public contract.
type Bus interface {
	Subscribe(s Sink)
	Publish(e Event)
}

type bus struct {
	sinks chan Sink
	queue chan Event
	done  chan struct{}

	subscribed []Sink
}

// New builds a Bus with the given delivery queue depth. A full queue causes
// Publish to drop the event rather than block the Transfer Engine -
// observability must never become a reason a transfer stalls.
func New(queueDepth int) Bus {
	b := &bus{
		sinks: make(chan Sink),
		queue: make(chan Event, queueDepth),
		done:  make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *bus) run() {
	for {
		select {
		case s := <-b.sinks:
			b.subscribed = append(b.subscribed, s)
		case e := <-b.queue:
			for _, s := range b.subscribed {
				go s.Notify(e)
			}
		case <-b.done:
			return
		}
	}
}

func (b *bus) Subscribe(s Sink) {
	b.sinks <- s
}

func (b *bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case b.queue <- e:
	default:
		// queue full: drop rather than block the caller
	}
}
