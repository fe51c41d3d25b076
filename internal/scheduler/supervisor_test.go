package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestSupervisor() *Supervisor {
	return New(zerolog.New(io.Discard))
}

func TestRegisterValidation(t *testing.T) {
	s := newTestSupervisor()

	require.Error(t, s.Register("bad-interval", 0, func(ctx context.Context) {}))
	require.Error(t, s.Register("nil-run", time.Second, nil))

	require.NoError(t, s.Register("scan", time.Second, func(ctx context.Context) {}))
	require.Error(t, s.Register("scan", time.Second, func(ctx context.Context) {}), "duplicate key must be rejected")
}

func TestStartRunsJobImmediately(t *testing.T) {
	s := newTestSupervisor()

	ran := make(chan struct{}, 1)
	require.NoError(t, s.Register("scan", time.Hour, func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))

	require.NoError(t, s.Start(context.Background(), "scan"))
	defer s.StopAll()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run immediately on start")
	}
}

func TestStartUnknownAndDoubleStart(t *testing.T) {
	s := newTestSupervisor()
	ctx := context.Background()

	require.Error(t, s.Start(ctx, "missing"))

	require.NoError(t, s.Register("scan", time.Hour, func(ctx context.Context) {}))
	require.NoError(t, s.Start(ctx, "scan"))
	defer s.StopAll()

	require.Error(t, s.Start(ctx, "scan"), "a running job cannot be started twice")
}

func TestStopWaitsForLoopExit(t *testing.T) {
	s := newTestSupervisor()

	require.NoError(t, s.Register("scan", time.Hour, func(ctx context.Context) {}))
	require.NoError(t, s.Start(context.Background(), "scan"))

	require.NoError(t, s.Stop("scan"))
	require.Error(t, s.Stop("scan"), "stopping a stopped job must fail")
	require.Error(t, s.Stop("missing"))
}

func TestRestart(t *testing.T) {
	s := newTestSupervisor()
	ctx := context.Background()

	runs := make(chan struct{}, 4)
	require.NoError(t, s.Register("scan", time.Hour, func(ctx context.Context) {
		runs <- struct{}{}
	}))

	require.NoError(t, s.Start(ctx, "scan"))
	<-runs

	require.NoError(t, s.Restart(ctx, "scan"))
	defer s.StopAll()

	select {
	case <-runs:
	case <-time.After(time.Second):
		t.Fatal("restart did not run the job again")
	}

	// Restart also works when the job is not currently running.
	require.NoError(t, s.Stop("scan"))
	require.NoError(t, s.Restart(ctx, "scan"))
	<-runs

	require.Error(t, s.Restart(ctx, "missing"))
}

func TestContextCancellationStopsJob(t *testing.T) {
	s := newTestSupervisor()
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Register("scan", time.Hour, func(ctx context.Context) {}))
	require.NoError(t, s.Start(ctx, "scan"))

	cancel()

	// The loop exits on its own; Stop still cleans up bookkeeping.
	require.Eventually(t, func() bool {
		return s.Stop("scan") == nil
	}, time.Second, 10*time.Millisecond)
}
