// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the tunesync playback core.
package domain

import (
	"time"
)

// NoIndex marks a queue without a current position.
// A queue holds NoIndex if and only if it has no tracks.
const NoIndex = -1

// LocalPrefix marks track ids that name a file on the local filesystem.
const LocalPrefix = "local:"

// Track represents a single playable unit.
// Identity is by ID: two tracks with the same ID are the same logical track
// even when their StreamURL differs (the URL is filled in lazily).
type Track struct {
	// ID is the stable catalog identifier (video id, or "local:<path>" for files)
	ID string `json:"id"`

	// StreamURL is the resolved playable URL (empty until resolved)
	StreamURL string `json:"url"`

	// Title is the song title
	Title string `json:"title"`

	// Artist is the performing artist or channel name
	Artist string `json:"artist"`

	// ArtworkURL points to the cover or thumbnail image
	ArtworkURL string `json:"artwork"`
}

// SameAs reports whether both tracks refer to the same logical track.
func (t Track) SameAs(other Track) bool {
	return t.ID != "" && t.ID == other.ID
}

// Source selects one of the two playback queues.
type Source string

const (
	// SourceNormal is the ad-hoc queue built from search, rank and worldcup screens.
	SourceNormal Source = "normal"

	// SourcePlaylist is the queue loaded from a stored playlist.
	SourcePlaylist Source = "playlist"
)

// Sources lists every queue source in a stable order.
var Sources = []Source{SourceNormal, SourcePlaylist}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceNormal || s == SourcePlaylist
}

// Queue is an ordered list of tracks paired with a current index.
type Queue struct {
	// Tracks is the ordered track list (duplicate IDs are avoided by convention)
	Tracks []Track `json:"tracks"`

	// Index points into Tracks, NoIndex when the queue is empty
	Index int `json:"index"`
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{Tracks: []Track{}, Index: NoIndex}
}

// Len returns the number of tracks.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Tracks)
}

// IsEmpty reports whether the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Valid checks the index bound: NoIndex iff empty, otherwise 0 <= Index < Len.
func (q *Queue) Valid() bool {
	if q.IsEmpty() {
		return q == nil || q.Index == NoIndex
	}
	return q.Index >= 0 && q.Index < len(q.Tracks)
}

// Current returns the track at Index, or nil.
func (q *Queue) Current() *Track {
	if q.IsEmpty() || q.Index < 0 || q.Index >= len(q.Tracks) {
		return nil
	}
	t := q.Tracks[q.Index]
	return &t
}

// Clone returns a deep copy.
func (q *Queue) Clone() *Queue {
	if q == nil {
		return NewQueue()
	}
	tracks := make([]Track, len(q.Tracks))
	copy(tracks, q.Tracks)
	return &Queue{Tracks: tracks, Index: q.Index}
}

// PlaybackState is the root record of the queue state store.
// It is the only persisted part of the playback core.
type PlaybackState struct {
	// CurrentMusic is the loaded track, independent of the queue it came from
	CurrentMusic *Track `json:"currentMusic"`

	// IsPlaying mirrors whether audio is playing
	IsPlaying bool `json:"isPlaying"`

	// Position is the last known playback position, captured on pause/background
	Position time.Duration `json:"currentPlaybackPosition"`

	// Queues holds one queue per source
	Queues map[Source]*Queue `json:"queues"`

	// ActiveSource selects which queue is live
	ActiveSource Source `json:"activeSource"`

	// CurrentPlaylistID identifies the stored playlist the playlist queue was loaded from
	CurrentPlaylistID string `json:"currentPlaylistId"`

	// BarVisible tells the UI to render the mini player
	BarVisible bool `json:"isBarVisible"`
}

// NewPlaybackState returns the first-launch defaults.
func NewPlaybackState() *PlaybackState {
	return &PlaybackState{
		Queues: map[Source]*Queue{
			SourceNormal:   NewQueue(),
			SourcePlaylist: NewQueue(),
		},
		ActiveSource: SourceNormal,
	}
}

// Queue returns the queue for source, creating it when missing.
func (s *PlaybackState) Queue(source Source) *Queue {
	if s.Queues == nil {
		s.Queues = make(map[Source]*Queue)
	}
	q, ok := s.Queues[source]
	if !ok || q == nil {
		q = NewQueue()
		s.Queues[source] = q
	}
	return q
}

// ActiveQueue returns the queue selected by ActiveSource.
func (s *PlaybackState) ActiveQueue() *Queue {
	return s.Queue(s.ActiveSource)
}

// Clone returns a deep copy safe to hand out to callers.
func (s *PlaybackState) Clone() *PlaybackState {
	out := &PlaybackState{
		IsPlaying:         s.IsPlaying,
		Position:          s.Position,
		ActiveSource:      s.ActiveSource,
		CurrentPlaylistID: s.CurrentPlaylistID,
		BarVisible:        s.BarVisible,
		Queues:            make(map[Source]*Queue, len(Sources)),
	}
	if s.CurrentMusic != nil {
		t := *s.CurrentMusic
		out.CurrentMusic = &t
	}
	for _, src := range Sources {
		out.Queues[src] = s.Queues[src].Clone()
	}
	return out
}

// Validate checks the queue index invariant for every source.
func (s *PlaybackState) Validate() error {
	if !s.ActiveSource.Valid() {
		return NewValidationError("activeSource", s.ActiveSource, "unknown source")
	}
	for _, src := range Sources {
		q := s.Queues[src]
		if q != nil && !q.Valid() {
			return NewValidationError(string(src)+".index", q.Index, "index out of bounds for queue")
		}
	}
	return nil
}

// EngineState is a playback state reported by the media engine.
type EngineState int

const (
	// EngineStateNone means nothing is loaded.
	EngineStateNone EngineState = iota
	// EngineStateReady means a track is loaded but not started.
	EngineStateReady
	// EngineStatePlaying means audio is playing.
	EngineStatePlaying
	// EngineStateBuffering means playback is waiting for data.
	EngineStateBuffering
	// EngineStatePaused means playback is paused.
	EngineStatePaused
	// EngineStateStopped means playback is stopped.
	EngineStateStopped
	// EngineStateEnded means the queue finished.
	EngineStateEnded
	// EngineStateError means the engine failed to play.
	EngineStateError
)

// String returns a human-readable state.
func (s EngineState) String() string {
	switch s {
	case EngineStateNone:
		return "none"
	case EngineStateReady:
		return "ready"
	case EngineStatePlaying:
		return "playing"
	case EngineStateBuffering:
		return "buffering"
	case EngineStatePaused:
		return "paused"
	case EngineStateStopped:
		return "stopped"
	case EngineStateEnded:
		return "ended"
	case EngineStateError:
		return "error"
	default:
		return "unknown"
	}
}

// IsActive reports whether the engine is playing or about to.
func (s EngineState) IsActive() bool {
	return s == EngineStatePlaying || s == EngineStateBuffering
}

// StoredTrack is a track saved in a playlist.
type StoredTrack struct {
	Track
	AddedAt time.Time `json:"addedAt"`
}

// StoredPlaylist is a user-authored playlist owned by the playlist store.
// The state store only holds a copy of its tracks while it is playing.
type StoredPlaylist struct {
	// ID is "<title>_<uuid>"
	ID string `json:"id"`

	// Title is the display name
	Title string `json:"title"`

	// Tracks is the ordered track list
	Tracks []StoredTrack `json:"tracks"`

	// CreatedAt is when the playlist was created
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the playlist was last modified
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlainTracks returns the playlist tracks without their timestamps.
func (p *StoredPlaylist) PlainTracks() []Track {
	out := make([]Track, len(p.Tracks))
	for i, st := range p.Tracks {
		out[i] = st.Track
	}
	return out
}

// Thumbnails holds catalog thumbnail URLs at named sizes.
type Thumbnails struct {
	Default string
	Medium  string
	High    string
}

// CatalogItem is a search or chart result from the video catalog.
type CatalogItem struct {
	VideoID      string
	Title        string
	Description  string
	ChannelTitle string
	Thumbnails   Thumbnails
	PublishedAt  time.Time
}

// Track converts the item into an unresolved Track.
func (c CatalogItem) Track() Track {
	return Track{
		ID:         c.VideoID,
		Title:      c.Title,
		Artist:     c.ChannelTitle,
		ArtworkURL: c.Thumbnails.Medium,
	}
}

// RankEntry is one row of the play-count or worldcup winner ranking.
type RankEntry struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Count        int    `json:"count"`

	// LastWin is set for worldcup winners only
	LastWin time.Time `json:"lastWin,omitzero"`
}

// AppState is the foreground/background state of the host application.
type AppState string

const (
	// AppStateActive means the app is in the foreground.
	AppStateActive AppState = "active"
	// AppStateBackground means the app moved to the background.
	AppStateBackground AppState = "background"
)
