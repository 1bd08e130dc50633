package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) DeleteExpiredSessions(context.Context) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestCleaner_SweepsUntilCancelled(t *testing.T) {
	sweeper := &countingSweeper{}
	c := NewCleaner(sweeper, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 3 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup worker did not stop")
	}
}

func TestCleaner_KeepsRunningAfterError(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("storage unavailable")}
	c := NewCleaner(sweeper, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestNewCleaner_DefaultInterval(t *testing.T) {
	c := NewCleaner(&countingSweeper{}, 0)
	assert.Equal(t, 5*time.Minute, c.interval)
}
