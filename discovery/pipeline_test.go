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

package discovery

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wastore/audiosync/cache"
	"github.com/wastore/audiosync/events"
	"github.com/wastore/audiosync/remote"
	"github.com/wastore/audiosync/store"
)

type fakeClient struct {
	group    remote.GroupInfo
	messages []remote.Message
}

func (c *fakeClient) ResolveGroup(ctx context.Context, ref string) (remote.GroupInfo, error) {
	return c.group, nil
}

func (c *fakeClient) IterMessages(ctx context.Context, group remote.GroupInfo, yield func(remote.Message) bool) error {
	for _, m := range c.messages {
		if !yield(m) {
			break
		}
	}
	return nil
}

func (c *fakeClient) DownloadMedia(ctx context.Context, att remote.Attachment, destPath string, onProgress remote.ProgressFunc) error {
	return nil
}

// fakeEngine's ProcessJob is now invoked from a goroutine per submission
// (see Pipeline.Run), so its state needs its own lock.
type fakeEngine struct {
	mu        sync.Mutex
	processed []string
	failNext  error
}

func (e *fakeEngine) ProcessJob(ctx context.Context, job store.Job, att remote.Attachment) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failNext != nil {
		err := e.failNext
		e.failNext = nil
		return err
	}
	e.processed = append(e.processed, job.RemoteFileID)
	return nil
}

func (e *fakeEngine) processedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.processed...)
}

func newTestPipeline(t *testing.T, client *fakeClient, engine *fakeEngine) (*pipeline, store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	dir := t.TempDir()
	p := New(client, st, cache.New(16), engine, events.New(16), dir).(*pipeline)
	return p, st
}

func audioMessage(id string) remote.Message {
	return remote.Message{
		Attachment: &remote.Attachment{
			RemoteFileID:     id,
			DeclaredSize:     1024,
			DeclaredFilename: id + ".mp3",
			Title:            "track",
		},
	}
}

func TestRunSubmitsNewAudioAttachments(t *testing.T) {
	client := &fakeClient{
		group:    remote.GroupInfo{RemoteID: 1, Title: "g"},
		messages: []remote.Message{audioMessage("f1"), audioMessage("f2")},
	}
	engine := &fakeEngine{}
	p, _ := newTestPipeline(t, client, engine)

	submitted, err := p.Run(context.Background(), "g", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, submitted)
	assert.ElementsMatch(t, []string{"f1", "f2"}, engine.processedIDs())
}

func TestRunSkipsNonAudioMessages(t *testing.T) {
	client := &fakeClient{
		group: remote.GroupInfo{RemoteID: 1},
		messages: []remote.Message{
			{Attachment: nil},
			audioMessage("f1"),
		},
	}
	engine := &fakeEngine{}
	p, _ := newTestPipeline(t, client, engine)

	submitted, err := p.Run(context.Background(), "g", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, submitted)
}

func TestRunSkipsIdentifiersAlreadyInCache(t *testing.T) {
	client := &fakeClient{
		group:    remote.GroupInfo{RemoteID: 1},
		messages: []remote.Message{audioMessage("f1")},
	}
	engine := &fakeEngine{}
	p, _ := newTestPipeline(t, client, engine)
	p.idCache.Insert("f1")

	submitted, err := p.Run(context.Background(), "g", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, submitted)
	assert.Empty(t, engine.processedIDs())
}

func TestRunRespectsLimit(t *testing.T) {
	client := &fakeClient{
		group:    remote.GroupInfo{RemoteID: 1},
		messages: []remote.Message{audioMessage("f1"), audioMessage("f2"), audioMessage("f3")},
	}
	engine := &fakeEngine{}
	p, _ := newTestPipeline(t, client, engine)

	submitted, err := p.Run(context.Background(), "g", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, submitted)
}

func TestSelfHealResubmitsResumableJobs(t *testing.T) {
	client := &fakeClient{group: remote.GroupInfo{RemoteID: 1}}
	engine := &fakeEngine{}
	p, st := newTestPipeline(t, client, engine)

	job, _, err := st.GetOrCreateJob("f1", store.JobDefaults{DeclaredSize: 2048}, 0)
	require.NoError(t, err)
	job.State = store.StateFailed
	job.BytesDownloaded = 512
	require.NoError(t, st.UpdateJob(&job))

	resubmitted, err := p.SelfHeal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resubmitted)
	assert.Equal(t, []string{"f1"}, engine.processedIDs())
}
