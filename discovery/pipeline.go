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

// Package discovery implements the Discovery Pipeline: it walks a group's
// message history, turns audio attachments into jobs, and hands them to the
// Transfer Engine. It also runs the self-heal sweep that re-submits jobs
// left FAILED with partial progress after a restart.
package discovery

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/wastore/audiosync/cache"
	"github.com/wastore/audiosync/common"
	"github.com/wastore/audiosync/events"
	"github.com/wastore/audiosync/remote"
	"github.com/wastore/audiosync/store"
)

// Submitter is the narrow slice of the Transfer Engine Discovery depends
// on, so tests can stub it without building a full engine.
type Submitter interface {
	ProcessJob(ctx context.Context, job store.Job, att remote.Attachment) error
}

// Pipeline is the Discovery Pipeline's public contract.
type Pipeline interface {
	// Run resolves groupRef, enumerates its messages until limit audio
	// attachments have been seen (0 means no limit; non-audio messages do
	// not count), and submits every newly-discovered or still-pending audio
	// attachment to the Transfer Engine.
	Run(ctx context.Context, groupRef string, limit int) (submitted int, err error)
	// SelfHeal resubmits every job the Job Store has recorded as FAILED
	// with partial progress - typically jobs orphaned by a restart.
	SelfHeal(ctx context.Context) (resubmitted int, err error)
}

type pipeline struct {
	client    remote.Client
	store     store.Store
	idCache   cache.IdentifierCache
	engine    Submitter
	bus       events.Bus
	outputDir string
	batchSize int
	logger    common.ILogger
}

type Option func(*pipeline)

func WithBatchSize(n int) Option {
	return func(p *pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}
func WithLogger(l common.ILogger) Option { return func(p *pipeline) { p.logger = l } }

// New builds a Pipeline that writes downloaded files under outputDir.
func New(
	client remote.Client,
	st store.Store,
	idCache cache.IdentifierCache,
	engine Submitter,
	bus events.Bus,
	outputDir string,
	opts ...Option,
) Pipeline {
	p := &pipeline{
		client:    client,
		store:     st,
		idCache:   idCache,
		engine:    engine,
		bus:       bus,
		outputDir: outputDir,
		batchSize: common.DefaultDiscoveryBatchSize,
		logger:    common.NullLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Run(ctx context.Context, groupRef string, limit int) (int, error) {
	info, err := p.client.ResolveGroup(ctx, groupRef)
	if err != nil {
		return 0, common.NewTransportError(err)
	}

	group, err := p.store.UpsertGroup(info.RemoteID, info.Title, info.Handle)
	if err != nil {
		return 0, err
	}

	var wg sync.WaitGroup
	submitted := 0
	seen := 0
	walkErr := p.client.IterMessages(ctx, info, func(msg remote.Message) bool {
		if limit > 0 && seen >= limit {
			return false
		}
		if msg.Attachment == nil || !remote.IsAudioAttachment(*msg.Attachment) {
			return true
		}
		seen++

		ok, err := p.submitOne(ctx, &wg, group, *msg.Attachment)
		if err != nil {
			p.logger.Log(common.LogWarning, "discovery: submit failed: "+err.Error())
			return true
		}
		if ok {
			submitted++
			if submitted%p.batchSize == 0 {
				p.logger.Log(common.LogInfo, "discovery: submitted a batch")
			}
		}
		return true
	})
	wg.Wait()
	if walkErr != nil {
		return submitted, common.NewTransportError(walkErr)
	}
	return submitted, nil
}

// submitOne turns one attachment into a job and, if it is new work, hands it
// to the Transfer Engine on its own goroutine - the Scheduler's semaphore,
// not this loop, is what bounds how many run at once. Returns false (no
// error) when the file was already known complete.
func (p *pipeline) submitOne(ctx context.Context, wg *sync.WaitGroup, group store.Group, att remote.Attachment) (bool, error) {
	if p.idCache.Has(att.RemoteFileID) {
		return false, nil
	}

	targetName := p.deriveTargetName(att)

	defaults := store.JobDefaults{
		RemoteFileReference: att.RemoteFileReference,
		DeclaredSize:        att.DeclaredSize,
		MimeType:            att.MimeType,
		DurationSeconds:     att.DurationSeconds,
		Title:               att.Title,
		Performer:           att.Performer,
	}

	job, created, err := p.store.GetOrCreateJob(att.RemoteFileID, defaults, group.ID)
	if err != nil {
		return false, err
	}

	if !created {
		if job.State == store.StateCompleted {
			p.idCache.Insert(job.RemoteFileID)
			return false, nil
		}
		if job.State == store.StateDownloading {
			return false, nil // another invocation already owns this job
		}
	} else {
		job.TargetName = targetName
		job.FinalPath = filepath.Join(p.outputDir, targetName)
		job.PartialPath = job.FinalPath + common.PartialFileSuffix
		if err := p.store.UpdateJob(&job); err != nil {
			return false, err
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.engine.ProcessJob(ctx, job, att); err != nil {
			p.logger.Log(common.LogWarning, "discovery: transfer failed: "+err.Error())
		}
	}()
	return true, nil
}

func (p *pipeline) deriveTargetName(att remote.Attachment) string {
	base := att.DeclaredFilename
	if base == "" {
		base = att.Title + ".mp3"
	}
	sanitized := common.SanitizeFilename(base)
	resolved, err := common.ResolveCollision(p.outputDir, sanitized)
	if err != nil {
		return sanitized
	}
	return resolved
}

// SelfHeal resubmits every FAILED job with partial progress. It is run on
// startup before a fresh discovery pass, so a crash mid-download doesn't
// silently strand a partial file.
func (p *pipeline) SelfHeal(ctx context.Context) (int, error) {
	jobs, err := p.store.ListResumable()
	if err != nil {
		return 0, err
	}

	var wg sync.WaitGroup
	resubmitted := 0
	for _, job := range jobs {
		att := remote.Attachment{
			RemoteFileID:        job.RemoteFileID,
			RemoteFileReference: job.RemoteFileReference,
			DeclaredSize:        job.DeclaredSize,
			MimeType:            job.MimeType,
			DurationSeconds:     job.DurationSeconds,
			Title:               job.Title,
			Performer:           job.Performer,
		}

		resubmitted++
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.bus.Publish(events.Event{Kind: events.KindRecovered, RemoteFileID: job.RemoteFileID})
			if err := p.engine.ProcessJob(ctx, job, att); err != nil {
				p.logger.Log(common.LogWarning, "discovery: self-heal resubmit failed: "+err.Error())
			}
		}()
	}
	wg.Wait()
	return resubmitted, nil
}
