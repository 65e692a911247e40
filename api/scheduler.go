/*
scheduler.go - Automated replanning scheduler

PURPOSE:
  Periodically regenerates the renewal plan so newly registered
  certifications get picked up without an operator pressing the button.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Skips certifications that already have an active plan entry is handled
    naturally: the bulk write fails on the uniqueness constraint only for
    true duplicates, so the scheduler clears and regenerates atomically
  - Each automatic run is recorded in the audit trail with actor "scheduler"

CONFIGURATION:
  - CheckInterval: How often to replan (default: 24 hours)
  - HorizonMonths: Planning horizon for automatic runs (default: 6)
  - Enabled: Whether the scheduler is active (default: false; opt-in)

USAGE:
  scheduler := NewPlanScheduler(handler)
  scheduler.Enabled = true
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GeneratePlan endpoint (manual runs)
  - planning/allocator.go: The engine both paths share
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/skyfleet/renewal-engine/planning"
)

// PlanScheduler regenerates the renewal plan on a fixed interval.
type PlanScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	HorizonMonths int
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPlanScheduler creates a new scheduler. Disabled by default.
func NewPlanScheduler(handler *Handler) *PlanScheduler {
	return &PlanScheduler{
		Handler:       handler,
		CheckInterval: 24 * time.Hour,
		HorizonMonths: 6,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (ps *PlanScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.wg.Add(1)
	go ps.run()

	log.Printf("[Scheduler] Started with check interval: %v", ps.CheckInterval)
}

// Stop shuts the scheduler down and waits for any in-flight run.
func (ps *PlanScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker == nil {
		return
	}
	ps.ticker.Stop()
	close(ps.stop)
	ps.wg.Wait()
	ps.ticker = nil
}

func (ps *PlanScheduler) run() {
	defer ps.wg.Done()
	for {
		select {
		case <-ps.ticker.C:
			ps.RunNow()
		case <-ps.stop:
			return
		}
	}
}

// RunNow clears the current plan and regenerates it immediately.
func (ps *PlanScheduler) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := ps.Handler.Store.ClearAll(ctx); err != nil {
		log.Printf("[Scheduler] Failed to clear previous plan: %v", err)
		return
	}

	alloc := ps.Handler.allocator(false, false)
	result, err := alloc.GeneratePlan(ctx, planning.PlanRequest{
		HorizonMonths: ps.HorizonMonths,
		ActorID:       "scheduler",
	})
	if err != nil {
		log.Printf("[Scheduler] Replan failed: %v", err)
		return
	}

	log.Printf("[Scheduler] Replan complete: %d planned, %d skipped",
		result.TotalPlanned(), len(result.Skipped))
}
