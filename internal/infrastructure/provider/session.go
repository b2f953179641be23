package provider

import (
	"context"
	"sync"

	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// Session is the per-screening fetch cache. Each key is fetched at most once
// per session; failures are cached and replayed the same way as successes so
// a flapping provider is not hammered within one run.
//
// Concurrent callers of the same key coordinate through a per-entry done
// channel: the first caller performs the fetch, later callers block on the
// channel until the outcome is published. The session mutex guards only the
// entry map, never the upstream call.
type Session struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	fetchers map[string]Fetcher
	logger   logging.Logger

	statsMu sync.Mutex
	fetches int
	hits    int
}

type entry struct {
	done  chan struct{}
	value interface{}
	err   error
}

// NewSession builds a session over the given fetchers.
func NewSession(fetchers []Fetcher, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	byID := make(map[string]Fetcher, len(fetchers))
	for _, f := range fetchers {
		byID[f.ProviderID()] = f
	}
	return &Session{
		entries:  make(map[Key]*entry),
		fetchers: byID,
		logger:   logger.Named("fetchcache"),
	}
}

// GetOrFetch returns the cached outcome for key, fetching it on first use.
//
// Cancellation of ctx stops new fetches from starting and unblocks waiters,
// but a fetch already in flight is allowed to finish so its outcome still
// lands in the cache for the rest of the session.
func (s *Session) GetOrFetch(ctx context.Context, key Key) (interface{}, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		s.mu.Unlock()
		s.countHit()
		select {
		case <-e.done:
			return e.value, e.err
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.ErrCodeScreeningCancelled, "wait for in-flight fetch cancelled")
		}
	}
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return nil, errors.Wrap(err, errors.ErrCodeScreeningCancelled, "fetch not started")
	}
	f, ok := s.fetchers[key.ProviderID]
	if !ok {
		s.mu.Unlock()
		return nil, errors.New(errors.ErrCodeCheckConfigInvalid, "no fetcher for provider").
			WithDetail("provider_id=" + key.ProviderID)
	}
	e := &entry{done: make(chan struct{})}
	s.entries[key] = e
	s.mu.Unlock()

	s.countFetch()
	// Detach from ctx so cancellation lets this fetch run to completion and
	// populate the cache.
	e.value, e.err = f.Fetch(context.WithoutCancel(ctx), key)
	if e.err != nil {
		s.logger.Warn("provider fetch failed",
			logging.String("key", key.String()),
			logging.Err(e.err),
		)
		if _, ok := e.err.(*errors.AppError); !ok {
			e.err = errors.Wrap(e.err, errors.ErrCodeProviderUnavailable, "provider fetch failed")
		}
	}
	close(e.done)
	return e.value, e.err
}

// Stats returns the number of upstream fetches performed and cache hits
// served so far.
func (s *Session) Stats() (fetches, hits int) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.fetches, s.hits
}

func (s *Session) countFetch() {
	s.statsMu.Lock()
	s.fetches++
	s.statsMu.Unlock()
}

func (s *Session) countHit() {
	s.statsMu.Lock()
	s.hits++
	s.statsMu.Unlock()
}
