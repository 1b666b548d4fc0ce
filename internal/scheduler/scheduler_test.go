/*
Copyright 2026.
*/

package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	fullSyncCalls int32
	blockFullSync chan struct{}
	failCleanup   bool
}

func (f *fakeRunner) RunFullSync(ctx context.Context) error {
	atomic.AddInt32(&f.fullSyncCalls, 1)
	if f.blockFullSync != nil {
		<-f.blockFullSync
	}
	return nil
}

func (f *fakeRunner) RunIncrementalSync(ctx context.Context) error { return nil }

func (f *fakeRunner) RunCleanup(ctx context.Context) error {
	if f.failCleanup {
		return errors.New("cleanup boom")
	}
	return nil
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger.Sugar()
}

func TestScheduler_SecondFireOfSameKindDroppedWhileRunning(t *testing.T) {
	runner := &fakeRunner{blockFullSync: make(chan struct{})}
	s, err := New(DefaultConfig(), runner, testLogger(t), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.fire(KindFullSync, runner.RunFullSync)
	}()

	// Give the first fire time to mark the kind running.
	for i := 0; i < 100 && len(s.RunningKinds()) == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	require.Contains(t, s.RunningKinds(), KindFullSync)

	s.fire(KindFullSync, runner.RunFullSync)
	close(runner.blockFullSync)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.fullSyncCalls))
	assert.Empty(t, s.RunningKinds())
}

func TestScheduler_IndependentKindsMayOverlap(t *testing.T) {
	runner := &fakeRunner{}
	s, err := New(DefaultConfig(), runner, testLogger(t), nil)
	require.NoError(t, err)

	s.running[KindFullSync] = true
	s.fire(KindCleanup, runner.RunCleanup)

	assert.Contains(t, s.RunningKinds(), KindFullSync)
	assert.NotContains(t, s.RunningKinds(), KindCleanup)
}

func TestScheduler_FailedJobClearsRunningState(t *testing.T) {
	runner := &fakeRunner{failCleanup: true}
	s, err := New(DefaultConfig(), runner, testLogger(t), nil)
	require.NoError(t, err)

	s.fire(KindCleanup, runner.RunCleanup)
	assert.Empty(t, s.RunningKinds())
}

func TestNew_RejectsInvalidSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FullSyncSchedule = "not a cron expression"
	_, err := New(cfg, &fakeRunner{}, testLogger(t), nil)
	assert.Error(t, err)
}
