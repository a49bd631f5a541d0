package service

import (
	"context"
	"time"
)

// PurgeObserver is told the outcome of every janitor sweep.
type PurgeObserver func(purged int64, err error)

// JanitorService sweeps expired sessions out of the store.
type JanitorService struct {
	sessions *SessionManager
	observe  PurgeObserver
}

func NewJanitorService(sessions *SessionManager, observe PurgeObserver) *JanitorService {
	return &JanitorService{sessions: sessions, observe: observe}
}

// Run sweeps at the given interval until ctx is canceled.
func (j *JanitorService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		return
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := j.sessions.PurgeExpired(ctx)
			if ctx.Err() != nil {
				return
			}
			if j.observe != nil {
				j.observe(n, err)
			}
		}
	}
}
