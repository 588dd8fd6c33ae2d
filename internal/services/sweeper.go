package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/seonho/medirag/internal/medirag"
	"github.com/seonho/medirag/internal/repository"
)

// Sweeper periodically repairs the upload crash window: documents whose
// row was inserted but whose blob write never finished sit in the
// created state with an empty storage_path forever. The sweep flips
// rows older than staleAfter to error so clients can tell them apart
// from in-flight uploads.
type Sweeper struct {
	repo       repository.DocumentRepository
	staleAfter time.Duration
	cron       *cron.Cron
}

// NewSweeper registers the sweep on the given cron schedule. An empty
// schedule disables the sweeper (Start and Stop become no-ops).
func NewSweeper(repo repository.DocumentRepository, schedule string, staleAfter time.Duration) (*Sweeper, error) {
	s := &Sweeper{repo: repo, staleAfter: staleAfter}
	if schedule == "" {
		return s, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}
	s.cron = c
	return s, nil
}

// Start begins running the sweep on its schedule.
func (s *Sweeper) Start() {
	if s.cron == nil {
		return
	}
	s.cron.Start()
	slog.Info("sweeper: started", "stale_after", s.staleAfter)
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := medirag.Now().Add(-s.staleAfter)
	n, err := s.repo.MarkAbandoned(ctx, cutoff)
	if err != nil {
		slog.Error("sweeper: mark abandoned failed", "err", err)
		return
	}
	if n > 0 {
		slog.Info("sweeper: flagged abandoned uploads", "count", n)
	}
}
