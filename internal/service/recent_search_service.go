package service

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// MaxRecentSearches bounds the recent search list.
const MaxRecentSearches = 15

// RecentSearchService keeps the recent search queries, newest first.
// A repeated query moves to the front instead of appearing twice.
// All operations are thread-safe via sync.RWMutex.
type RecentSearchService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.RecentSearchRepository

	// Cached list
	queries    []string
	cacheValid bool

	// Concurrency control
	mu sync.RWMutex
}

// NewRecentSearchService creates a new recent search service.
func NewRecentSearchService(logger *slog.Logger, repository ports.RecentSearchRepository) *RecentSearchService {
	return &RecentSearchService{
		logger:     logger.With(slog.String("service", "recent")),
		repository: repository,
	}
}

// List returns the recent queries, newest first.
func (s *RecentSearchService) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded()
	return slices.Clone(s.queries)
}

// Add records query as the newest search. Blank queries are ignored.
func (s *RecentSearchService) Add(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded()
	next := make([]string, 0, len(s.queries)+1)
	next = append(next, query)
	for _, q := range s.queries {
		if q != query {
			next = append(next, q)
		}
	}
	if len(next) > MaxRecentSearches {
		next = next[:MaxRecentSearches]
	}
	return s.commit(next)
}

// Remove deletes one query from the list.
func (s *RecentSearchService) Remove(query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded()
	i := slices.Index(s.queries, query)
	if i < 0 {
		return nil
	}
	return s.commit(slices.Delete(slices.Clone(s.queries), i, i+1))
}

// Clear empties the list.
func (s *RecentSearchService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit([]string{})
}

// ensureLoaded must be called with the lock held.
func (s *RecentSearchService) ensureLoaded() {
	if s.cacheValid {
		return
	}
	queries, err := s.repository.LoadRecentSearches()
	if err != nil {
		s.logger.Warn("failed to load recent searches", slog.Any("error", err))
		queries = nil
	}
	s.queries = queries
	s.cacheValid = true
}

// commit must be called with the lock held.
func (s *RecentSearchService) commit(queries []string) error {
	if err := s.repository.SaveRecentSearches(queries); err != nil {
		return err
	}
	s.queries = queries
	s.cacheValid = true
	return nil
}
