package profile

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/voxic/multi-odl-demo/internal/domain"
)

// BuildFunc builds and emits one customer's profile end to end. Both variants
// plug in here: the account/transaction variant builds and upserts, the
// agreement variant builds and publishes.
type BuildFunc func(ctx context.Context, customerID int64) error

type customerSource interface {
	DistinctCustomerIDs(ctx context.Context) ([]int64, error)
}

// Stats is a point-in-time snapshot of the aggregator's counters.
type Stats struct {
	BuildsCompleted int64 `json:"buildsCompleted"`
	BuildsFailed    int64 `json:"buildsFailed"`
	BuildsDropped   int64 `json:"buildsDropped"`
	SweepsCompleted int64 `json:"sweepsCompleted"`
	SweepActive     bool  `json:"sweepActive"`
}

// Aggregator owns the single sequential execution context every profile build
// runs on. Change notifications and sweep iterations enqueue customer ids
// onto the same channel, drained by one worker goroutine, so builds for
// different customers never race and the engine needs no locking beyond the
// sweep's re-entrancy flag.
type Aggregator struct {
	build     BuildFunc
	customers customerSource

	queue      chan int64
	sweeping   atomic.Bool
	sweepDelay time.Duration
	interval   time.Duration
	logger     *slog.Logger

	buildsCompleted atomic.Int64
	buildsFailed    atomic.Int64
	buildsDropped   atomic.Int64
	sweepsCompleted atomic.Int64
}

func NewAggregator(build BuildFunc, customers customerSource, queueSize int, sweepDelay, interval time.Duration, logger *slog.Logger) *Aggregator {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Aggregator{
		build:      build,
		customers:  customers,
		queue:      make(chan int64, queueSize),
		sweepDelay: sweepDelay,
		interval:   interval,
		logger:     logger,
	}
}

// Start runs the build worker and the periodic sweep ticker until ctx is
// cancelled. Builds are not cancelled mid-flight; the worker finishes the
// current build and stops picking up new ids.
func (a *Aggregator) Start(ctx context.Context) {
	go a.work(ctx)

	if a.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.StartSweep(ctx)
			}
		}
	}()
}

func (a *Aggregator) work(ctx context.Context) {
	a.logger.Info("profile build worker started", "queue_size", cap(a.queue))
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("profile build worker stopped")
			return
		case id := <-a.queue:
			a.runBuild(ctx, id)
		}
	}
}

func (a *Aggregator) runBuild(ctx context.Context, customerID int64) {
	err := a.build(ctx, customerID)
	switch {
	case err == nil:
		a.buildsCompleted.Add(1)
	case errors.Is(err, domain.ErrCustomerNotFound):
		// Not an error: the entity may simply not have landed yet.
		a.logger.Warn("customer not found, skipping build", "customer_id", customerID)
	default:
		// Contained: one customer's failure never affects other builds.
		a.buildsFailed.Add(1)
		a.logger.Warn("profile build failed", "customer_id", customerID, "error", err)
	}
}

// Enqueue schedules a targeted rebuild. Returns false when the queue is full;
// the dropped build is backstopped by the next reconciliation sweep.
func (a *Aggregator) Enqueue(customerID int64) bool {
	select {
	case a.queue <- customerID:
		return true
	default:
		a.buildsDropped.Add(1)
		a.logger.Warn("build queue full, dropping rebuild", "customer_id", customerID)
		return false
	}
}

// StartSweep begins a full rebuild pass over every known customer id.
// A sweep arriving while one is active is dropped, not queued: the flag is
// the engine's only piece of shared mutable state.
func (a *Aggregator) StartSweep(ctx context.Context) bool {
	if !a.sweeping.CompareAndSwap(false, true) {
		a.logger.Info("sweep already active, dropping request")
		return false
	}

	go func() {
		defer a.sweeping.Store(false)
		a.sweep(ctx)
	}()
	return true
}

func (a *Aggregator) sweep(ctx context.Context) {
	sweepID := uuid.NewString()
	start := time.Now()

	ids, err := a.customers.DistinctCustomerIDs(ctx)
	if err != nil {
		a.logger.Error("sweep failed to enumerate customers", "sweep_id", sweepID, "error", err)
		return
	}

	a.logger.Info("sweep started", "sweep_id", sweepID, "customers", len(ids))
	for _, id := range ids {
		select {
		case <-ctx.Done():
			a.logger.Info("sweep interrupted", "sweep_id", sweepID)
			return
		case a.queue <- id:
		}
		if a.sweepDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(a.sweepDelay):
			}
		}
	}

	a.sweepsCompleted.Add(1)
	a.logger.Info("sweep completed", "sweep_id", sweepID,
		"customers", len(ids), "duration_ms", time.Since(start).Milliseconds())
}

// SweepActive reports whether a sweep is currently scheduling builds.
func (a *Aggregator) SweepActive() bool {
	return a.sweeping.Load()
}

func (a *Aggregator) Stats() Stats {
	return Stats{
		BuildsCompleted: a.buildsCompleted.Load(),
		BuildsFailed:    a.buildsFailed.Load(),
		BuildsDropped:   a.buildsDropped.Load(),
		SweepsCompleted: a.sweepsCompleted.Load(),
		SweepActive:     a.sweeping.Load(),
	}
}
