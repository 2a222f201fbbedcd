package api

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allinone/wfh-engine/wfh"
	"github.com/allinone/wfh-engine/wfh/store"
)

func newTestScheduler(t *testing.T) *SweepScheduler {
	t.Helper()
	svc := wfh.NewService(store.NewTxMemory(), store.NewDirectory(demoOrganisation()...), wfh.DefaultPolicy())
	svc.Logger = log.New(io.Discard, "", 0)
	return NewSweepScheduler(svc)
}

func TestSweepScheduler_RunsOnStart(t *testing.T) {
	// GIVEN: An enabled scheduler with a long interval
	// WHEN: It starts
	// THEN: One sweep runs immediately and Stop waits for it
	ss := newTestScheduler(t)
	ss.CheckInterval = time.Hour

	ss.Start()
	require.Eventually(t, func() bool { return len(ss.Runs()) == 1 }, time.Second, 5*time.Millisecond)
	ss.Stop()

	runs := ss.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "scheduled", runs[0].Trigger)
	assert.Empty(t, runs[0].Error)
}

func TestSweepScheduler_Disabled(t *testing.T) {
	ss := newTestScheduler(t)
	ss.Enabled = false

	ss.Start()
	ss.Stop()

	assert.Empty(t, ss.Runs())
}

func TestSweepScheduler_StopTwice(t *testing.T) {
	ss := newTestScheduler(t)

	ss.Start()
	ss.Stop()
	assert.NotPanics(t, ss.Stop)
}

func TestSweepScheduler_ConcurrentRunsAllRecorded(t *testing.T) {
	ss := newTestScheduler(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ss.RunNow("manual")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, ss.Runs(), 8)
}

func TestSweepScheduler_HistoryIsBoundedNewestFirst(t *testing.T) {
	ss := newTestScheduler(t)

	for i := 0; i < maxSweepRuns+5; i++ {
		_, err := ss.RunNow("manual")
		require.NoError(t, err)
	}
	ss.RunNow("scheduled")

	runs := ss.Runs()
	assert.Len(t, runs, maxSweepRuns)
	assert.Equal(t, "scheduled", runs[0].Trigger)
}

func TestSweepScheduler_ServiceWithoutClock(t *testing.T) {
	// GIVEN: A service assembled by hand with no clock
	// WHEN: A manual sweep runs
	// THEN: It uses wall time instead of panicking
	svc := &wfh.Service{
		Store:     store.NewTxMemory(),
		Directory: store.NewDirectory(demoOrganisation()...),
		Policy:    wfh.DefaultPolicy(),
		Logger:    log.New(io.Discard, "", 0),
	}
	ss := NewSweepScheduler(svc)

	_, err := ss.RunNow("manual")

	require.NoError(t, err)
	runs := ss.Runs()
	require.Len(t, runs, 1)
	assert.False(t, runs[0].StartedAt.IsZero())
}
