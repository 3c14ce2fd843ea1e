package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRegeneratorCoalescesTriggersDuringRun(t *testing.T) {
	var runs, concurrent, maxConcurrent atomic.Int32
	release := make(chan struct{})
	regen := NewRegenerator(func(context.Context) error {
		n := concurrent.Add(1)
		if n > maxConcurrent.Load() {
			maxConcurrent.Store(n)
		}
		defer concurrent.Add(-1)
		if runs.Add(1) == 1 {
			<-release
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go regen.Loop(ctx)

	regen.Trigger()
	require.Eventually(t, func() bool { return regen.Status().Running }, time.Second, 5*time.Millisecond)

	for i := 0; i < 10; i++ {
		regen.Trigger()
		time.Sleep(2 * time.Millisecond)
	}
	close(release)

	require.Eventually(t, func() bool { return regen.Status().Runs == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())
	assert.Equal(t, int32(1), maxConcurrent.Load())
}

func TestRegeneratorRecordsError(t *testing.T) {
	regen := NewRegenerator(func(context.Context) error { return errors.New("enumeration failed") })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go regen.Loop(ctx)

	regen.Trigger()
	require.Eventually(t, func() bool { return regen.Status().Runs == 1 }, time.Second, 5*time.Millisecond)
	st := regen.Status()
	assert.Equal(t, "enumeration failed", st.LastError)
	assert.False(t, st.Running)
	assert.False(t, st.LastRun.IsZero())
}

func TestTriggerNeverBlocks(t *testing.T) {
	regen := NewRegenerator(func(context.Context) error { return nil })
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			regen.Trigger()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trigger blocked without a running loop")
	}
}
