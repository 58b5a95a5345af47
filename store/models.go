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

package store

import "time"

// JobState is the lifecycle state of one file's download.
type JobState string

const (
	StatePending     JobState = "PENDING"
	StateDownloading JobState = "DOWNLOADING"
	StateCompleted   JobState = "COMPLETED"
	StateFailed      JobState = "FAILED"
	StateSkipped     JobState = "SKIPPED"
)

// Group is a remote chat/channel. RemoteID is the wire identifier reported
// by the remote collaborator; it is deliberately kept distinct from Jobs'
// GroupRef foreign key, per the canonical group-id scheme decided in
// DESIGN.md.
type Group struct {
	ID       uint   `gorm:"primarykey"`
	RemoteID int64  `gorm:"uniqueIndex;not null"`
	Title    string
	Handle   string
	Jobs     []Job `gorm:"foreignKey:GroupRef"`
}

func (Group) TableName() string { return "groups" }

// Job is the unit of scheduling and persistence: one remote file.
type Job struct {
	ID                   uint   `gorm:"primarykey"`
	RemoteFileID         string `gorm:"uniqueIndex;not null"`
	RemoteFileReference  string
	GroupRef             uint `gorm:"index"`
	DeclaredSize         int64
	MimeType             string
	DurationSeconds      int64
	Title                string
	Performer            string
	TargetName           string
	FinalPath            string
	PartialPath          string
	BytesDownloaded      int64
	State                JobState `gorm:"index"`
	Digest               string
	AttemptCount         int
	LastAttemptAt        *time.Time
	LastError            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (Job) TableName() string { return "jobs" }

// JobDefaults carries the attachment metadata the Discovery Pipeline
// observed when it first saw a remote file, used only when the job did not
// already exist.
type JobDefaults struct {
	RemoteFileReference string
	DeclaredSize        int64
	MimeType            string
	DurationSeconds     int64
	Title               string
	Performer           string
}
