package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/andressep95/session-auth/internal/metrics"
	"github.com/andressep95/session-auth/internal/repository"
)

// SessionSweeper purges expired sessions on a fixed interval. Refresh checks
// expiry itself, so the sweep only reclaims storage.
type SessionSweeper struct {
	sessions repository.SessionRepository
	interval time.Duration
	log      *slog.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

func NewSessionSweeper(sessions repository.SessionRepository, interval time.Duration, log *slog.Logger, rec *metrics.Recorder) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		log:      log.With("component", "session_sweeper"),
		metrics:  rec,
		now:      time.Now,
	}
}

// Run sweeps until ctx is cancelled. A non-positive interval disables it.
func (s *SessionSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info("session sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

func (s *SessionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		s.log.Error("failed to sweep expired sessions", "error", err)
		return 0, err
	}

	s.metrics.SessionsSwept(removed)
	if removed > 0 {
		s.log.Debug("swept expired sessions", "removed", removed)
	}
	return removed, nil
}
