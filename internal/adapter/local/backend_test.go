package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/logger"
)

// id3v1 builds a 128-byte ID3v1 trailer.
func id3v1(title, artist string) []byte {
	b := make([]byte, 128)
	copy(b[0:3], "TAG")
	copy(b[3:33], title)
	copy(b[33:63], artist)
	copy(b[93:97], "2020")
	b[127] = 255
	return b
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestBackend_Handles(t *testing.T) {
	b := NewBackend(logger.NewTestLogger())

	assert.True(t, b.Handles(domain.Track{ID: "local:/a.mp3"}))
	assert.False(t, b.Handles(domain.Track{ID: "dQw4w9WgXcQ"}))
}

func TestBackend_ResolveTagged(t *testing.T) {
	data := append(make([]byte, 512), id3v1("Local Song", "Local Artist")...)
	path := writeFile(t, "track01.mp3", data)
	b := NewBackend(logger.NewTestLogger())

	track, err := TrackFromPath(path)
	require.NoError(t, err)

	got, err := b.ResolveAudio(context.Background(), track)
	require.NoError(t, err)
	assert.Equal(t, "Local Song", got.Title)
	assert.Equal(t, "Local Artist", got.Artist)
	assert.Equal(t, "file://"+path, got.StreamURL)
	assert.Equal(t, track.ID, got.ID)
}

func TestBackend_ResolveUntagged(t *testing.T) {
	path := writeFile(t, "My Demo.wav", []byte("not really audio"))
	b := NewBackend(logger.NewTestLogger())

	got, err := b.ResolveAudio(context.Background(), domain.Track{ID: Prefix + path})
	require.NoError(t, err)
	assert.Equal(t, "My Demo", got.Title)
	assert.Equal(t, "Unknown Artist", got.Artist)
}

func TestBackend_ResolveMissing(t *testing.T) {
	b := NewBackend(logger.NewTestLogger())

	_, err := b.ResolveAudio(context.Background(), domain.Track{ID: Prefix + "/does/not/exist.mp3"})
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)

	_, err = b.ResolveAudio(context.Background(), domain.Track{ID: Prefix + t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
}
