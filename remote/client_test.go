package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAudioAttachmentByExtension(t *testing.T) {
	a := assert.New(t)
	a.True(IsAudioAttachment(Attachment{DeclaredFilename: "track.MP3"}))
	a.True(IsAudioAttachment(Attachment{DeclaredFilename: "voice.opus"}))
	a.False(IsAudioAttachment(Attachment{DeclaredFilename: "photo.png"}))
}

func TestIsAudioAttachmentByMimeType(t *testing.T) {
	a := assert.New(t)
	a.True(IsAudioAttachment(Attachment{MimeType: "audio/ogg"}))
	a.True(IsAudioAttachment(Attachment{MimeType: "video/mpeg"}))
	a.False(IsAudioAttachment(Attachment{MimeType: "image/jpeg"}))
}

func TestIsAudioAttachmentByAttributes(t *testing.T) {
	a := assert.New(t)
	a.True(IsAudioAttachment(Attachment{DurationSeconds: 180}))
	a.True(IsAudioAttachment(Attachment{Title: "Song"}))
	a.True(IsAudioAttachment(Attachment{Performer: "Artist"}))
	a.False(IsAudioAttachment(Attachment{}))
}
