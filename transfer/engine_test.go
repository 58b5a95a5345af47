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

package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wastore/audiosync/cache"
	"github.com/wastore/audiosync/common"
	"github.com/wastore/audiosync/events"
	"github.com/wastore/audiosync/remote"
	"github.com/wastore/audiosync/store"
)

// fakeGovernor always allows admission and never throttles.
type fakeGovernor struct{}

func (fakeGovernor) Target() int                  { return 100 }
func (fakeGovernor) CanStart(declaredSize int64) bool { return true }
func (fakeGovernor) Run(ctx context.Context)       {}
func (fakeGovernor) OnMemoryPressure(cb func())    {}

// fakePacer never delays and records Adjust calls.
type fakePacer struct {
	adjustedBy []float64
}

func (p *fakePacer) Acquire(ctx context.Context, weight float64) error { return nil }
func (p *fakePacer) Adjust(floodWaitSeconds float64)                   { p.adjustedBy = append(p.adjustedBy, floodWaitSeconds) }
func (p *fakePacer) Rate() float64                                     { return 1 }

// fakeScheduler grants every permit immediately and tracks release calls.
type fakeScheduler struct {
	released []string
}

func (s *fakeScheduler) Acquire(ctx context.Context, remoteFileID string) (bool, error) {
	return true, nil
}
func (s *fakeScheduler) Release(remoteFileID string) { s.released = append(s.released, remoteFileID) }
func (s *fakeScheduler) InFlight() int                { return 0 }

// fakeClient writes a fixed payload to destPath, optionally failing first.
type fakeClient struct {
	payload    []byte
	failWith   error
	failTimes  int
	callCount  int
}

func (c *fakeClient) ResolveGroup(ctx context.Context, ref string) (remote.GroupInfo, error) {
	return remote.GroupInfo{}, nil
}
func (c *fakeClient) IterMessages(ctx context.Context, group remote.GroupInfo, yield func(remote.Message) bool) error {
	return nil
}
func (c *fakeClient) DownloadMedia(ctx context.Context, att remote.Attachment, destPath string, onProgress remote.ProgressFunc) error {
	c.callCount++
	if c.failTimes > 0 {
		c.failTimes--
		return c.failWith
	}
	if err := os.WriteFile(destPath, c.payload, 0644); err != nil {
		return err
	}
	onProgress(int64(len(c.payload)))
	return nil
}

func newTestEngine(t *testing.T, client *fakeClient, pc *fakePacer, sch *fakeScheduler) (*engine, store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	e := New(st, sch, fakeGovernor{}, pc, events.New(16), client, cache.New(16)).(*engine)
	return e, st
}

func testJob(t *testing.T, dir string, size int64) store.Job {
	t.Helper()
	return store.Job{
		RemoteFileID: "file-1",
		DeclaredSize: size,
		PartialPath:  filepath.Join(dir, "song.mp3.partial"),
		FinalPath:    filepath.Join(dir, "song.mp3"),
		State:        store.StatePending,
	}
}

func TestProcessJobCompletesCleanDownload(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("audio-bytes")
	client := &fakeClient{payload: payload}
	pc := &fakePacer{}
	sch := &fakeScheduler{}
	e, st := newTestEngine(t, client, pc, sch)

	job := testJob(t, dir, int64(len(payload)))
	require.NoError(t, st.UpdateJob(&job))

	err := e.ProcessJob(context.Background(), job, remote.Attachment{RemoteFileID: job.RemoteFileID})
	require.NoError(t, err)

	_, statErr := os.Stat(job.FinalPath)
	assert.NoError(t, statErr)
	assert.Equal(t, []string{"file-1"}, sch.released)
}

func TestProcessJobRetriesTransportErrorThenSucceeds(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("audio-bytes")
	client := &fakeClient{payload: payload, failWith: common.NewTransportError(errors.New("connection reset")), failTimes: 1}
	pc := &fakePacer{}
	sch := &fakeScheduler{}
	e, st := newTestEngine(t, client, pc, sch)

	job := testJob(t, dir, int64(len(payload)))
	require.NoError(t, st.UpdateJob(&job))

	err := e.ProcessJob(context.Background(), job, remote.Attachment{RemoteFileID: job.RemoteFileID})
	require.NoError(t, err)
	assert.Equal(t, 2, client.callCount)
}

func TestProcessJobFailsWithoutCompletingOnShortStream(t *testing.T) {
	dir := t.TempDir()
	client := &fakeClient{payload: []byte("short")}
	pc := &fakePacer{}
	sch := &fakeScheduler{}
	e, st := newTestEngine(t, client, pc, sch)

	job := testJob(t, dir, 100) // declares more bytes than the client will ever write
	require.NoError(t, st.UpdateJob(&job))

	err := e.ProcessJob(context.Background(), job, remote.Attachment{RemoteFileID: job.RemoteFileID})
	require.Error(t, err)

	_, statErr := os.Stat(job.FinalPath)
	assert.True(t, os.IsNotExist(statErr), "an incomplete stream must never be renamed into place")

	reloaded, loadErr := st.LoadResumable(job.RemoteFileID)
	require.NoError(t, loadErr)
	require.NotNil(t, reloaded)
	assert.Equal(t, store.StateFailed, reloaded.State)
}

func TestProcessJobAdjustsPacerOnFlowControl(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("audio-bytes")
	client := &fakeClient{
		payload:   payload,
		failWith:  common.NewRemoteFlowControlError(10*time.Millisecond, errors.New("slow down")),
		failTimes: 1,
	}
	pc := &fakePacer{}
	sch := &fakeScheduler{}
	e, st := newTestEngine(t, client, pc, sch)
	e.invocationRetryLimit = 2

	job := testJob(t, dir, int64(len(payload)))
	require.NoError(t, st.UpdateJob(&job))

	err := e.ProcessJob(context.Background(), job, remote.Attachment{RemoteFileID: job.RemoteFileID})
	require.NoError(t, err)
	assert.Len(t, pc.adjustedBy, 1)
}
