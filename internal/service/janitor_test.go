package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestJanitor_RunPurgesUntilCanceled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m, repo, clock := newTestSessionManager(SessionOptions{IdleTimeout: time.Minute, MaxLifetime: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	_, err := m.Create(ctx, "alice")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	var purged atomic.Int64
	j := NewJanitorService(m, func(n int64, err error) {
		if err == nil {
			purged.Add(n)
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		j.Run(ctx, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return purged.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, repo.len())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestJanitor_ContinuesAfterError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m, repo, _ := newTestSessionManager(SessionOptions{})
	repo.purgeErr = errors.New("db down")

	var failures atomic.Int32
	j := NewJanitorService(m, func(_ int64, err error) {
		if errors.Is(err, ErrSessionStore) {
			failures.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		j.Run(ctx, 2*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return failures.Load() >= 3 }, time.Second, 2*time.Millisecond)
	cancel()
	<-done
	assert.GreaterOrEqual(t, repo.calls(), 3)
}

func TestJanitor_NonPositiveTickReturns(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m, repo, _ := newTestSessionManager(SessionOptions{})
	NewJanitorService(m, nil).Run(context.Background(), 0)
	assert.Equal(t, 0, repo.calls())
}
