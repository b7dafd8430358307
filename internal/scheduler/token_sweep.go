// Package scheduler runs background maintenance jobs. Currently the only
// job is the expired capability-token sweep; redemption expires tokens
// lazily on its own, the sweep just keeps the table from accumulating
// rows for tokens nobody ever presented.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/tiago-cos/prosa-kobo/internal/database/tokens"
)

// TokenSweepScheduler periodically deletes expired capability tokens.
type TokenSweepScheduler struct {
	tokens   *tokens.Repository
	schedule string

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewTokenSweepScheduler creates a sweep scheduler with a standard
// five-field cron schedule.
func NewTokenSweepScheduler(tokenRepo *tokens.Repository, schedule string) *TokenSweepScheduler {
	return &TokenSweepScheduler{
		tokens:   tokenRepo,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *TokenSweepScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, s.runSweep)
	if err != nil {
		return fmt.Errorf("failed to schedule token sweep: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Token sweep scheduler: started with schedule '%s'", s.schedule)
	return nil
}

// Stop halts the scheduler, waiting for an in-flight sweep to finish.
func (s *TokenSweepScheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.isRunning = false
	log.Printf("Token sweep scheduler: stopped")
}

func (s *TokenSweepScheduler) runSweep() {
	removed, err := s.tokens.DeleteExpired()
	if err != nil {
		log.Printf("Token sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Token sweep removed %d expired tokens", removed)
	}
}
