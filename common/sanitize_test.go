package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilenameReplacesReservedCharacters(t *testing.T) {
	a := assert.New(t)
	a.Equal("a_b_c.mp3", SanitizeFilename(`a<b>c.mp3`))
	a.Equal("who_.mp3", SanitizeFilename(`who?.mp3`))
}

func TestSanitizeFilenameStripsEmojiAndControls(t *testing.T) {
	a := assert.New(t)
	got := SanitizeFilename("track\U0001F3B5 name.mp3")
	a.Equal("track name.mp3", got)

	got2 := SanitizeFilename("a​b.mp3")
	a.Equal("ab.mp3", got2)
}

func TestSanitizeFilenameCollapsesRuns(t *testing.T) {
	a := assert.New(t)
	a.Equal("a.b.mp3", SanitizeFilename("a...b.mp3"))
	a.Equal("a_b.mp3", SanitizeFilename("a___b.mp3"))
}

func TestSanitizeFilenameTrimsEdges(t *testing.T) {
	a := assert.New(t)
	a.Equal("name.mp3", SanitizeFilename("  name.mp3  "))
}

func TestSanitizeFilenameGuardsReservedDeviceNames(t *testing.T) {
	a := assert.New(t)
	a.Equal("_CON.mp3", SanitizeFilename("CON.mp3"))
	a.Equal("_con.mp3", SanitizeFilename("con.mp3"))
}

func TestSanitizeFilenameTruncatesPreservingExtension(t *testing.T) {
	a := assert.New(t)
	long := strings.Repeat("a", 300) + ".mp3"
	got := SanitizeFilename(long)
	a.LessOrEqual(len(got), maxFilenameLength)
	a.True(strings.HasSuffix(got, ".mp3"))
}

func TestResolveCollisionReturnsCandidateWhenFree(t *testing.T) {
	dir := t.TempDir()
	name, err := ResolveCollision(dir, "song.mp3")
	require.NoError(t, err)
	assert.Equal(t, "song.mp3", name)
}

func TestResolveCollisionAppendsSmallestFreeSuffix(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song_1.mp3"), []byte("x"), 0644))

	name, err := ResolveCollision(dir, "song.mp3")
	require.NoError(t, err)
	assert.Equal(t, "song_2.mp3", name)
}
