/*
scheduler.go - Automated auto-resolution sweep scheduler

PURPOSE:
  Periodically runs wfh.Service.Sweep so requests left pending past the
  stale threshold are resolved without a manager.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start, then on every tick
  - Manual runs (POST /api/admin/sweep) go through RunNow and share the
    same lock, so two sweeps never overlap
  - Keeps the most recent runs in memory for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewSweepScheduler(service)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerSweep endpoint (manual sweep)
  - wfh/sweep.go: Sweep
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/allinone/wfh-engine/wfh"
)

// maxSweepRuns bounds the in-memory run history.
const maxSweepRuns = 50

// SweepRun records one sweep.
type SweepRun struct {
	ID          string
	Trigger     string // "scheduled" or "manual"
	StartedAt   time.Time
	CompletedAt time.Time
	Summary     wfh.SweepSummary
	Error       string
}

// SweepScheduler handles automated sweeps.
type SweepScheduler struct {
	Service       *wfh.Service
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex // guards ticker/stop

	runMu sync.Mutex // held for the whole sweep
	runs  []SweepRun
}

// NewSweepScheduler creates a new scheduler.
func NewSweepScheduler(svc *wfh.Service) *SweepScheduler {
	return &SweepScheduler{
		Service:       svc,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (ss *SweepScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if ss.ticker != nil {
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.stop = make(chan bool)
	ss.wg.Add(1)

	go ss.run(ss.ticker.C, ss.stop)

	log.Printf("[Scheduler] Started with check interval: %v", ss.CheckInterval)
}

// Stop stops the scheduler and waits for an in-flight sweep to finish.
func (ss *SweepScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		ss.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (ss *SweepScheduler) run(tick <-chan time.Time, stop <-chan bool) {
	defer ss.wg.Done()

	// Run immediately on start
	ss.RunNow("scheduled")

	for {
		select {
		case <-tick:
			ss.RunNow("scheduled")
		case <-stop:
			return
		}
	}
}

// RunNow sweeps immediately, waiting for any sweep already in progress.
func (ss *SweepScheduler) RunNow(trigger string) (wfh.SweepSummary, error) {
	ss.runMu.Lock()
	defer ss.runMu.Unlock()

	now := ss.Service.Clock()
	run := SweepRun{
		ID:        fmt.Sprintf("sweep-%d", now.UnixNano()),
		Trigger:   trigger,
		StartedAt: now,
	}
	log.Printf("[Scheduler] Sweeping stale requests at %v", now)

	summary, err := ss.Service.Sweep(context.Background(), now)
	run.Summary = summary
	run.CompletedAt = ss.Service.Clock()
	if err != nil {
		run.Error = err.Error()
		log.Printf("[Scheduler] Sweep failed: %v", err)
	} else if summary != (wfh.SweepSummary{}) {
		log.Printf("[Scheduler] Completed: %d rejected, %d withdrawals reverted, %d failed",
			summary.Rejected, summary.RevertedWithdrawals, summary.Failed)
	}

	ss.runs = append(ss.runs, run)
	if len(ss.runs) > maxSweepRuns {
		ss.runs = ss.runs[len(ss.runs)-maxSweepRuns:]
	}
	return summary, err
}

// Runs returns the recorded runs, newest first.
func (ss *SweepScheduler) Runs() []SweepRun {
	ss.runMu.Lock()
	defer ss.runMu.Unlock()

	out := make([]SweepRun, len(ss.runs))
	for i, r := range ss.runs {
		out[len(ss.runs)-1-i] = r
	}
	return out
}
