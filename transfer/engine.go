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

// Package transfer implements the Transfer Engine: the per-job state
// machine that takes a job from PENDING through DOWNLOADING to a terminal
// COMPLETED or FAILED outcome.
package transfer

import (
	"context"
	"os"
	"time"

	"github.com/wastore/audiosync/cache"
	"github.com/wastore/audiosync/common"
	"github.com/wastore/audiosync/events"
	"github.com/wastore/audiosync/governor"
	"github.com/wastore/audiosync/pacer"
	"github.com/wastore/audiosync/remote"
	"github.com/wastore/audiosync/scheduler"
	"github.com/wastore/audiosync/store"
)

// Engine is the Transfer Engine's public contract: the dispatch unit
// Discovery submits a job to, which owns that job's permit and partial-file
// handle for the duration of one attempt sequence.
type Engine interface {
	ProcessJob(ctx context.Context, job store.Job, att remote.Attachment) error
}

type engine struct {
	store     store.Store
	scheduler scheduler.Scheduler
	governor  governor.Governor
	pacer     pacer.Pacer
	bus       events.Bus
	client    remote.Client
	idCache   cache.IdentifierCache
	logger    common.ILogger
	verifier  digestVerifier

	// bufferLimiter bounds the bytes buffered across all concurrently
	// running transfers between a checkpoint's progress callback and the
	// Job Store write that flushes it - the budget every invocation of
	// ProcessJob shares.
	bufferLimiter common.CacheLimiter

	invocationRetryLimit    int
	cumulativeAttemptCeiling int
}

type Option func(*engine)

func WithLogger(l common.ILogger) Option { return func(e *engine) { e.logger = l } }
func WithAttemptBudgets(invocationLimit, cumulativeCeiling int) Option {
	return func(e *engine) {
		e.invocationRetryLimit = invocationLimit
		e.cumulativeAttemptCeiling = cumulativeCeiling
	}
}
func WithBufferedBytesBudget(limit int64) Option {
	return func(e *engine) { e.bufferLimiter = common.NewCacheLimiter(limit) }
}

func New(
	st store.Store,
	sch scheduler.Scheduler,
	gov governor.Governor,
	pc pacer.Pacer,
	bus events.Bus,
	client remote.Client,
	idCache cache.IdentifierCache,
	opts ...Option,
) Engine {
	e := &engine{
		store:                    st,
		scheduler:                sch,
		governor:                 gov,
		pacer:                    pc,
		bus:                      bus,
		client:                   client,
		idCache:                  idCache,
		logger:                   common.NullLogger{},
		bufferLimiter:            common.NewCacheLimiter(common.DefaultBufferedBytesBudget),
		invocationRetryLimit:     DefaultAttemptBudget,
		cumulativeAttemptCeiling: DefaultCumulativeAttemptCeiling,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessJob runs job through admission, rate-limiting, resume detection,
// streaming, and completion/failure handling. It owns job's Scheduler
// permit for the duration of the call.
func (e *engine) ProcessJob(ctx context.Context, job store.Job, att remote.Attachment) error {
	acquired, err := e.scheduler.Acquire(ctx, job.RemoteFileID)
	if err != nil {
		return err
	}
	if !acquired {
		// already in flight elsewhere; not an error, just a no-op here
		return nil
	}
	defer e.scheduler.Release(job.RemoteFileID)

	if !e.governor.CanStart(job.DeclaredSize) {
		e.bus.Publish(events.Event{
			Kind:         events.KindResourcePressure,
			RemoteFileID: job.RemoteFileID,
			DeclaredSize: job.DeclaredSize,
		})
		return common.NewResourceExhaustedError(errDiskPressure)
	}

	for attempt := 0; attempt < e.invocationRetryLimit; attempt++ {
		if job.AttemptCount >= e.cumulativeAttemptCeiling {
			job.State = store.StateFailed
			job.LastError = "attempt ceiling exceeded"
			return e.store.UpdateJob(&job)
		}

		if err := e.pacer.Acquire(ctx, pacer.WeightForSize(job.DeclaredSize)); err != nil {
			return err
		}

		e.prepareResume(&job)

		job.State = store.StateDownloading
		job.AttemptCount++
		if err := e.store.UpdateJob(&job); err != nil {
			return err
		}
		e.bus.Publish(events.Event{Kind: events.KindStarted, RemoteFileID: job.RemoteFileID, DeclaredSize: job.DeclaredSize})

		err := e.stream(ctx, &job, att)
		if err == nil {
			return e.complete(&job)
		}

		if retryAfter, ok := common.RetryAfter(err); ok {
			e.pacer.Adjust(retryAfter.Seconds())
			e.bus.Publish(events.Event{Kind: events.KindRateLimited, RemoteFileID: job.RemoteFileID, RetryAfter: retryAfter})
			if !sleepOrCancel(ctx, retryAfter) {
				return ctx.Err()
			}
			continue
		}

		if common.ClassifyError(err) == common.KindTransportError {
			backoff := transportBackoff(attempt)
			if !sleepOrCancel(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}

		// unexpected or terminal: fail now, no further retries this invocation
		job.State = store.StateFailed
		job.LastError = err.Error()
		saveErr := e.store.UpdateJob(&job)
		e.bus.Publish(events.Event{Kind: events.KindFailed, RemoteFileID: job.RemoteFileID, Err: err})
		if saveErr != nil {
			return saveErr
		}
		return err
	}

	job.State = store.StateFailed
	job.LastError = "incomplete"
	return e.store.UpdateJob(&job)
}

// prepareResume inspects the job's partial file: if its size matches
// bytes_downloaded, streaming will resume from there; otherwise any stale
// partial is removed and progress resets to zero.
func (e *engine) prepareResume(job *store.Job) {
	if job.BytesDownloaded <= 0 {
		return
	}
	info, err := os.Stat(job.PartialPath)
	if err == nil && info.Size() == job.BytesDownloaded {
		return // resumable as-is
	}
	_ = os.Remove(job.PartialPath)
	job.BytesDownloaded = 0
}

func (e *engine) stream(ctx context.Context, job *store.Job, att remote.Attachment) error {
	var lastCheckpoint int64

	onProgress := func(bytesDownloaded int64) {
		job.BytesDownloaded = bytesDownloaded
		delta := bytesDownloaded - lastCheckpoint
		if delta >= common.CheckpointInterval {
			lastCheckpoint = bytesDownloaded

			// Reserve delta against the shared buffered-bytes budget for the
			// window between this progress callback and the store write
			// that flushes it; release as soon as the write returns.
			_ = e.bufferLimiter.WaitUntilAdd(ctx, delta, func() bool { return false })
			_ = e.store.UpdateJob(job)
			e.bufferLimiter.Remove(delta)

			e.bus.Publish(events.Event{
				Kind:            events.KindProgress,
				RemoteFileID:    job.RemoteFileID,
				BytesDownloaded: bytesDownloaded,
				DeclaredSize:    job.DeclaredSize,
			})
		}
	}

	err := e.client.DownloadMedia(ctx, att, job.PartialPath, onProgress)
	if err != nil {
		if ctx.Err() != nil {
			// cooperative cancellation: checkpoint and leave resumable
			job.State = store.StateFailed
			job.LastError = "cancelled"
			_ = e.store.UpdateJob(job)
			return common.NewResourceExhaustedError(ctx.Err())
		}
		return err
	}

	info, statErr := os.Stat(job.PartialPath)
	if statErr != nil {
		return common.NewFilesystemError(statErr)
	}
	job.BytesDownloaded = info.Size()

	if job.BytesDownloaded < job.DeclaredSize {
		return errIncompleteStream
	}
	return nil
}

func (e *engine) complete(job *store.Job) error {
	if err := os.Rename(job.PartialPath, job.FinalPath); err != nil {
		return common.NewFilesystemError(err)
	}

	digest, err := e.verifier.Check(job.FinalPath, "")
	if err != nil {
		_ = os.Remove(job.FinalPath)
		job.State = store.StateFailed
		job.LastError = "digest verification failed"
		_ = e.store.UpdateJob(job)
		return common.NewIntegrityFailureError(err)
	}

	job.State = store.StateCompleted
	job.Digest = digest
	job.PartialPath = ""
	job.BytesDownloaded = job.DeclaredSize
	if err := e.store.UpdateJob(job); err != nil {
		return err
	}

	e.idCache.Insert(job.RemoteFileID)
	e.bus.Publish(events.Event{
		Kind:            events.KindCompleted,
		RemoteFileID:    job.RemoteFileID,
		BytesDownloaded: job.BytesDownloaded,
		DeclaredSize:    job.DeclaredSize,
	})
	return nil
}

func sleepOrCancel(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

var errDiskPressure = diskPressureError{}

type diskPressureError struct{}

func (diskPressureError) Error() string { return "insufficient free disk space for declared size" }

var errIncompleteStream = incompleteStreamError{}

type incompleteStreamError struct{}

func (incompleteStreamError) Error() string { return "stream ended before declared size was reached" }
