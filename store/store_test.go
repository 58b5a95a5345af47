package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertGroupIsIdempotent(t *testing.T) {
	a := assert.New(t)
	s := newTestStore(t)

	g1, err := s.UpsertGroup(42, "Music Channel", "@musicchan")
	a.NoError(err)

	g2, err := s.UpsertGroup(42, "Music Channel (renamed)", "@musicchan")
	a.NoError(err)

	a.Equal(g1.ID, g2.ID)
	a.Equal(int64(42), g2.RemoteID)
	a.Equal("Music Channel (renamed)", g2.Title)
}

func TestGetOrCreateJobCreatesOnce(t *testing.T) {
	a := assert.New(t)
	s := newTestStore(t)

	g, err := s.UpsertGroup(1, "G", "")
	a.NoError(err)

	defaults := JobDefaults{DeclaredSize: 1024, Title: "Track", MimeType: "audio/mpeg"}

	job1, created1, err := s.GetOrCreateJob("rf-1", defaults, g.ID)
	a.NoError(err)
	a.True(created1)
	a.Equal(StatePending, job1.State)

	job2, created2, err := s.GetOrCreateJob("rf-1", JobDefaults{}, g.ID)
	a.NoError(err)
	a.False(created2)
	a.Equal(job1.ID, job2.ID)
}

func TestUpdateJobPersistsState(t *testing.T) {
	a := assert.New(t)
	s := newTestStore(t)

	g, _ := s.UpsertGroup(1, "G", "")
	job, _, err := s.GetOrCreateJob("rf-2", JobDefaults{DeclaredSize: 2048}, g.ID)
	a.NoError(err)

	job.State = StateDownloading
	job.BytesDownloaded = 1024
	a.NoError(s.UpdateJob(&job))

	resumable, err := s.LoadResumable("rf-2")
	a.NoError(err)
	a.Nil(resumable) // still DOWNLOADING, not FAILED

	job.State = StateFailed
	a.NoError(s.UpdateJob(&job))

	resumable, err = s.LoadResumable("rf-2")
	a.NoError(err)
	require.NotNil(t, resumable)
	a.Equal(int64(1024), resumable.BytesDownloaded)
}

func TestIterCompletedIDs(t *testing.T) {
	a := assert.New(t)
	s := newTestStore(t)

	g, _ := s.UpsertGroup(1, "G", "")
	job, _, _ := s.GetOrCreateJob("rf-3", JobDefaults{}, g.ID)
	job.State = StateCompleted
	job.Digest = "abc123"
	a.NoError(s.UpdateJob(&job))

	var seen []string
	a.NoError(s.IterCompletedIDs(func(id string) bool {
		seen = append(seen, id)
		return true
	}))
	a.Contains(seen, "rf-3")
}

func TestListResumableOnlyReturnsPartialFailures(t *testing.T) {
	a := assert.New(t)
	s := newTestStore(t)

	g, _ := s.UpsertGroup(1, "G", "")

	j1, _, _ := s.GetOrCreateJob("rf-4", JobDefaults{}, g.ID)
	j1.State = StateFailed
	j1.BytesDownloaded = 512
	require.NoError(t, s.UpdateJob(&j1))

	j2, _, _ := s.GetOrCreateJob("rf-5", JobDefaults{}, g.ID)
	j2.State = StateFailed
	j2.BytesDownloaded = 0
	require.NoError(t, s.UpdateJob(&j2))

	resumable, err := s.ListResumable()
	a.NoError(err)
	a.Len(resumable, 1)
	a.Equal("rf-4", resumable[0].RemoteFileID)
}

func TestReclaimsOrphanedDownloadingJobsOnOpen(t *testing.T) {
	a := assert.New(t)
	s := newTestStore(t)

	g, _ := s.UpsertGroup(1, "G", "")
	job, _, _ := s.GetOrCreateJob("rf-6", JobDefaults{}, g.ID)
	job.State = StateDownloading
	job.BytesDownloaded = 100
	require.NoError(t, s.UpdateJob(&job))

	gs := s.(*gormStore)
	a.NoError(gs.reclaimOrphanedTransfers())

	resumable, err := s.LoadResumable("rf-6")
	a.NoError(err)
	require.NotNil(t, resumable)
	a.Equal(StateFailed, resumable.State)
}
