package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// DefaultSinkTimeout bounds a single sink call.
const DefaultSinkTimeout = 10 * time.Second

// PlayLogService fans play and win notifications out to the configured
// sinks without blocking the caller. Sink errors are logged and dropped.
type PlayLogService struct {
	logger  *slog.Logger
	plays   []ports.PlayLogSink
	wins    []ports.WinLogSink
	timeout time.Duration

	pool   *pool.Pool
	mu     sync.Mutex
	closed bool
}

// NewPlayLogService creates a new play log service.
func NewPlayLogService(logger *slog.Logger, timeout time.Duration, plays []ports.PlayLogSink, wins []ports.WinLogSink) *PlayLogService {
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	return &PlayLogService{
		logger:  logger.With(slog.String("service", "playlog")),
		plays:   plays,
		wins:    wins,
		timeout: timeout,
		pool:    pool.New(),
	}
}

// NotifyPlay logs a play on every play sink.
func (s *PlayLogService) NotifyPlay(track domain.Track) {
	for _, sink := range s.plays {
		s.submit(sink.Name(), "play", func(ctx context.Context) error {
			return sink.LogPlay(ctx, track)
		})
	}
}

// NotifyWin logs a worldcup winner on every win sink.
func (s *PlayLogService) NotifyWin(track domain.Track) {
	for _, sink := range s.wins {
		s.submit("win", "win", func(ctx context.Context) error {
			return sink.LogWin(ctx, track)
		})
	}
}

func (s *PlayLogService) submit(name, kind string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pool.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			s.logger.Warn("play log failed",
				slog.String("sink", name),
				slog.String("kind", kind),
				slog.Any("error", err))
		}
	})
}

// Shutdown stops accepting notifications and waits for in-flight ones.
func (s *PlayLogService) Shutdown() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.pool.Wait()
	return nil
}

// Verify interface implementation
var _ PlayNotifier = (*PlayLogService)(nil)
