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

// Package remote defines the capability the core needs from the chat
// platform the files live in. The original source dispatches on
// duck-typed message objects handed back by its client library; this
// package replaces that with a narrow interface so the Transfer Engine and
// Discovery Pipeline never depend on a specific wire protocol or SDK.
package remote

import (
	"context"
	"path/filepath"
	"strings"
)

// Attachment is a plain record describing one message's attachment. The
// Discovery Pipeline keeps only those IsAudioAttachment accepts.
type Attachment struct {
	RemoteFileID        string
	RemoteFileReference string
	DeclaredSize        int64
	MimeType            string
	DurationSeconds     int64
	Title               string
	Performer           string
	DeclaredFilename    string
}

// Message is one enumerated chat message, carrying at most one
// Attachment (nil Attachment means this message has nothing to download).
type Message struct {
	RemoteMessageID int64
	Attachment      *Attachment
}

// GroupInfo is what resolve_group returns about a chat/channel.
type GroupInfo struct {
	RemoteID int64
	Title    string
	Handle   string
}

// ProgressFunc receives cumulative bytes downloaded so far for one transfer.
type ProgressFunc func(bytesDownloaded int64)

// Client is the capability boundary between the core and the remote chat
// platform. A production implementation wraps that platform's client
// library; tests supply a stub.
type Client interface {
	// ResolveGroup looks up a chat/channel by its user-facing reference
	// (handle, invite link, or numeric id) and returns its stable identity.
	ResolveGroup(ctx context.Context, ref string) (GroupInfo, error)

	// IterMessages walks a group's message history in reverse chronological
	// order (newest first), calling yield for each. Returning false from
	// yield stops enumeration early.
	IterMessages(ctx context.Context, group GroupInfo, yield func(Message) bool) error

	// DownloadMedia streams an attachment's bytes to destPath, invoking
	// onProgress as bytes arrive. It must honor ctx cancellation by
	// stopping the stream promptly and returning ctx.Err() (or a wrapped
	// form of it) without corrupting destPath's existing contents.
	DownloadMedia(ctx context.Context, att Attachment, destPath string, onProgress ProgressFunc) error
}

// IsAudioAttachment implements the audio-detection rule: an attachment
// counts as audio if its declared extension, MIME type, or the mere
// presence of audio-specific attributes (duration/title/performer) say so.
func IsAudioAttachment(a Attachment) bool {
	if hasAudioExtension(a.DeclaredFilename) {
		return true
	}
	if hasAudioMimeType(a.MimeType) {
		return true
	}
	return a.DurationSeconds > 0 || a.Title != "" || a.Performer != ""
}

var audioExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".ogg": true, ".flac": true,
	".wav": true, ".opus": true, ".aac": true, ".wma": true,
}

func hasAudioExtension(filename string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(filename))]
}

func hasAudioMimeType(mime string) bool {
	lower := strings.ToLower(mime)
	return strings.HasPrefix(lower, "audio/") || strings.Contains(lower, "mpeg")
}
