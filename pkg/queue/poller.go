package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// FireFunc is invoked for every recurring entry whose NextRunAt has passed.
type FireFunc func(ctx context.Context, entry *RecurringEntry) error

// Poller is a centralized recurrence orchestrator: it polls the queue's
// recurring entries on a fixed tick and fires every due entry regardless of
// its individual cron expression or period. Multiple poller instances may run
// concurrently; per-tick dedupe ids in the fire path keep firings idempotent.
type Poller struct {
	queue    Queue
	interval time.Duration
	fire     FireFunc
	logger   *slog.Logger

	ticker  *time.Ticker
	done    chan struct{}
	started bool
	mu      sync.Mutex
}

func NewPoller(queue Queue, interval time.Duration, fire FireFunc, logger *slog.Logger) *Poller {
	return &Poller{
		queue:    queue,
		interval: interval,
		fire:     fire,
		logger:   logger.With("module", "recurrence_poller"),
	}
}

func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	p.logger.InfoContext(ctx, "Starting recurrence poller", "interval", p.interval)

	p.ticker = time.NewTicker(p.interval)
	p.done = make(chan struct{})
	p.started = true

	go p.poll(ctx)

	return nil
}

func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return nil
	}

	p.logger.InfoContext(ctx, "Stopping recurrence poller")

	if p.ticker != nil {
		p.ticker.Stop()
	}

	// closing rather than sending guarantees the loop sees the signal even
	// if it is mid-tick when Stop runs
	close(p.done)

	p.started = false

	return nil
}

func (p *Poller) poll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-p.ticker.C:
			p.processDue(ctx)
		}
	}
}

func (p *Poller) processDue(ctx context.Context) {
	entries, err := p.queue.ListRecurring(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to list recurring entries", "error", err)

		return
	}

	now := time.Now().UTC()

	for _, entry := range entries {
		if entry.NextRunAt.After(now) {
			continue
		}

		if err := p.fire(ctx, entry); err != nil {
			p.logger.ErrorContext(ctx, "Failed to fire recurring entry",
				"entry_id", entry.ID, "error", err)

			continue
		}

		next, err := NextRun(entry, now)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to compute next run",
				"entry_id", entry.ID, "error", err)

			continue
		}

		entry.NextRunAt = next

		if err := p.queue.UpsertRecurring(ctx, entry); err != nil {
			p.logger.ErrorContext(ctx, "Failed to advance recurring entry",
				"entry_id", entry.ID, "error", err)
		}
	}
}

// NextRun computes when entry should fire after from, using its cron pattern
// or its fixed period.
func NextRun(entry *RecurringEntry, from time.Time) (time.Time, error) {
	if entry.Pattern != "" {
		schedule, err := cron.ParseStandard(entry.Pattern)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid cron pattern %q: %w", entry.Pattern, err)
		}

		return schedule.Next(from), nil
	}

	if entry.PeriodMs <= 0 {
		return time.Time{}, fmt.Errorf("recurring entry %s has neither pattern nor period", entry.ID)
	}

	return from.Add(time.Duration(entry.PeriodMs) * time.Millisecond), nil
}
