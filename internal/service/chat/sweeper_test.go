package chat_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	chat "github.com/akash-shanmuganathan/portfolio/backend/internal/service/chat"
)

func TestSweeperReclaimsIdleSessions(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := newFakeClock()
	store := chat.NewMemoryStore(chat.Options{TTL: time.Minute, Now: clock.Now})
	store.Append("s", "q", "a")
	clock.Advance(2 * time.Minute)

	var sweeps atomic.Int32
	sweeper := chat.NewSweeper(store, time.Second, zap.NewNop(), func(removed, remaining int) {
		sweeps.Add(1)
	})
	require.NoError(t, sweeper.Start())
	defer sweeper.Stop()

	require.Eventually(t, func() bool { return store.Len() == 0 }, 5*time.Second, 50*time.Millisecond)
	assert.GreaterOrEqual(t, sweeps.Load(), int32(1))
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := chat.NewMemoryStore(chat.Options{})
	sweeper := chat.NewSweeper(store, time.Minute, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeperStopWithoutStart(t *testing.T) {
	sweeper := chat.NewSweeper(chat.NewMemoryStore(chat.Options{}), 0, nil, nil)
	sweeper.Stop()
}
