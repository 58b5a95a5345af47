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

// Package store implements the Job Store: the durable record of groups and
// per-file jobs that every other component treats as the single source of
// truth about what has, and has not, been downloaded.
package store

import (
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wastore/audiosync/common"
)

// Store is the Job Store's public contract. Every mutating method flushes
// before returning: a caller that gets a nil error may treat the change as
// committed.
type Store interface {
	UpsertGroup(remoteID int64, title, handle string) (Group, error)
	GetOrCreateJob(remoteFileID string, defaults JobDefaults, groupRef uint) (job Job, created bool, err error)
	UpdateJob(job *Job) error
	IterCompletedIDs(yield func(remoteFileID string) bool) error
	LoadResumable(remoteFileID string) (*Job, error)
	ListResumable() ([]Job, error)
	ListJobs(state JobState, limit int) ([]Job, error)
	ListGroups() ([]Group, error)
	Close() error
}

type gormStore struct {
	db *gorm.DB
}

// Open creates or attaches to the sqlite-backed Job Store at path. On
// startup, any job left in DOWNLOADING is reclassified FAILED-resumable:
// no in-flight process survives a restart, so its partial file (if any) is
// still usable by a later retry.
func Open(path string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, common.NewStoreUnavailableError(err)
	}

	if err := db.AutoMigrate(&Group{}, &Job{}); err != nil {
		return nil, common.NewStoreUnavailableError(err)
	}

	s := &gormStore{db: db}
	if err := s.reclaimOrphanedTransfers(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *gormStore) reclaimOrphanedTransfers() error {
	res := s.db.Model(&Job{}).
		Where("state = ?", StateDownloading).
		Updates(map[string]interface{}{
			"state":      StateFailed,
			"last_error": "process restarted while DOWNLOADING",
		})
	if res.Error != nil {
		return common.NewStoreUnavailableError(res.Error)
	}
	return nil
}

func (s *gormStore) UpsertGroup(remoteID int64, title, handle string) (Group, error) {
	var g Group
	err := s.db.Where(Group{RemoteID: remoteID}).
		Assign(Group{Title: title, Handle: handle}).
		FirstOrCreate(&g).Error
	if err != nil {
		return Group{}, common.NewStoreUnavailableError(err)
	}
	return g, nil
}

func (s *gormStore) GetOrCreateJob(remoteFileID string, defaults JobDefaults, groupRef uint) (Job, bool, error) {
	var job Job
	err := s.db.Where(Job{RemoteFileID: remoteFileID}).First(&job).Error
	if err == nil {
		return job, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return Job{}, false, common.NewStoreUnavailableError(err)
	}

	job = Job{
		RemoteFileID:        remoteFileID,
		RemoteFileReference: defaults.RemoteFileReference,
		GroupRef:            groupRef,
		DeclaredSize:        defaults.DeclaredSize,
		MimeType:            defaults.MimeType,
		DurationSeconds:     defaults.DurationSeconds,
		Title:               defaults.Title,
		Performer:           defaults.Performer,
		State:               StatePending,
	}
	if err := s.db.Create(&job).Error; err != nil {
		return Job{}, false, common.NewStoreUnavailableError(err)
	}
	return job, true, nil
}

func (s *gormStore) UpdateJob(job *Job) error {
	now := time.Now()
	job.LastAttemptAt = &now
	if err := s.db.Save(job).Error; err != nil {
		return common.NewStoreUnavailableError(err)
	}
	return nil
}

func (s *gormStore) IterCompletedIDs(yield func(remoteFileID string) bool) error {
	rows, err := s.db.Model(&Job{}).Where("state = ?", StateCompleted).Rows()
	if err != nil {
		return common.NewStoreUnavailableError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var job Job
		if err := s.db.ScanRows(rows, &job); err != nil {
			return common.NewStoreUnavailableError(err)
		}
		if !yield(job.RemoteFileID) {
			break
		}
	}
	return nil
}

func (s *gormStore) LoadResumable(remoteFileID string) (*Job, error) {
	var job Job
	err := s.db.Where("remote_file_id = ? AND state = ?", remoteFileID, StateFailed).First(&job).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewStoreUnavailableError(err)
	}
	if job.BytesDownloaded <= 0 {
		return nil, nil
	}
	return &job, nil
}

// ListResumable returns every FAILED job with partial progress - the sweep
// the supplemented self-heal pass in the discovery package re-submits.
func (s *gormStore) ListResumable() ([]Job, error) {
	var jobs []Job
	err := s.db.Where("state = ? AND bytes_downloaded > 0", StateFailed).Find(&jobs).Error
	if err != nil {
		return nil, common.NewStoreUnavailableError(err)
	}
	return jobs, nil
}

// ListJobs backs the read-only `stats`/`search` CLI commands.
func (s *gormStore) ListJobs(state JobState, limit int) ([]Job, error) {
	var jobs []Job
	q := s.db.Order("updated_at desc")
	if state != "" {
		q = q.Where("state = ?", state)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, common.NewStoreUnavailableError(err)
	}
	return jobs, nil
}

// ListGroups backs the read-only `groups` CLI command.
func (s *gormStore) ListGroups() ([]Group, error) {
	var groups []Group
	if err := s.db.Preload("Jobs").Find(&groups).Error; err != nil {
		return nil, common.NewStoreUnavailableError(err)
	}
	return groups, nil
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return common.NewStoreUnavailableError(err)
	}
	return sqlDB.Close()
}
