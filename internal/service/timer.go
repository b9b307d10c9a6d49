package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Janitor periodically sweeps the registry for members whose connection is
// gone and matches nobody is left in, then drops cached lobby entries that
// no live match backs.
type Janitor struct {
	svc      *MatchService
	interval time.Duration
}

// NewJanitor creates a Janitor.
func NewJanitor(svc *MatchService, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Janitor{svc: svc, interval: interval}
}

// Start sweeps on every tick until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", j.interval).Msg("Session janitor started")
	j.pruneCache(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Session janitor stopped")
			return
		case <-ticker.C:
			if n := j.svc.Sweep(ctx); n > 0 {
				log.Info().Int("deleted", n).Msg("Janitor deleted empty games")
			}
			j.pruneCache(ctx)
		}
	}
}

func (j *Janitor) pruneCache(ctx context.Context) {
	if n := j.svc.PruneCache(ctx); n > 0 {
		log.Info().Int("closed", n).Msg("Janitor closed stale cached games")
	}
}
