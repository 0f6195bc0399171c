package lastfm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shkh/lastfm-go/lastfm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/logger"
)

type recordedCall struct {
	method string
	params lastfm.P
}

func newTestSink(nowPlayingErr, scrobbleErr error) (*Sink, *[]recordedCall) {
	var calls []recordedCall
	record := func(method string, err error) func(lastfm.P) error {
		return func(p lastfm.P) error {
			cp := lastfm.P{}
			for k, v := range p {
				cp[k] = v
			}
			calls = append(calls, recordedCall{method: method, params: cp})
			return err
		}
	}

	sink := New(Config{APIKey: "k", APISecret: "s", SessionKey: "session"}, logger.NewTestLogger())
	sink.nowPlaying = record("nowPlaying", nowPlayingErr)
	sink.scrobble = record("scrobble", scrobbleErr)
	sink.now = func() time.Time { return time.Unix(1700000000, 0) }
	return sink, &calls
}

func TestSink_LogPlay(t *testing.T) {
	sink, calls := newTestSink(nil, nil)

	err := sink.LogPlay(context.Background(), domain.Track{ID: "v", Title: "Song", Artist: "Band"})
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	assert.Equal(t, "nowPlaying", (*calls)[0].method)
	assert.Equal(t, lastfm.P{"artist": "Band", "track": "Song"}, (*calls)[0].params)
	assert.Equal(t, "scrobble", (*calls)[1].method)
	assert.Equal(t, int64(1700000000), (*calls)[1].params["timestamp"])
	assert.Equal(t, "lastfm", sink.Name())
}

func TestSink_LogPlayCombinesErrors(t *testing.T) {
	sink, calls := newTestSink(errors.New("np down"), errors.New("scrobble down"))

	err := sink.LogPlay(context.Background(), domain.Track{Title: "Song"})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Len(t, *calls, 2, "scrobble is attempted even when now-playing fails")
}

func TestSink_NotAuthenticated(t *testing.T) {
	sink := New(Config{APIKey: "k", APISecret: "s"}, logger.NewTestLogger())

	err := sink.LogPlay(context.Background(), domain.Track{Title: "Song"})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
