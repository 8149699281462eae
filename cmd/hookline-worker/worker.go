package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hookline/hookline/pkg/compiler"
	"github.com/hookline/hookline/pkg/coordinator"
	"github.com/hookline/hookline/pkg/eventbridge"
	"github.com/hookline/hookline/pkg/identity"
	"github.com/hookline/hookline/pkg/otelhelper"
	"github.com/hookline/hookline/pkg/queue"
	"github.com/hookline/hookline/pkg/registry"
	"github.com/hookline/hookline/pkg/store"
)

type WorkerOptions struct {
	PollInterval time.Duration
	Tracing      bool
}

// Worker runs one execution coordinator plus the recurrence poller that
// turns due schedule entries into queued runs.
type Worker struct {
	id          string
	coordinator *coordinator.Coordinator
	poller      *queue.Poller
	logger      *slog.Logger
	opts        WorkerOptions
}

func NewWorker(
	id string,
	kv store.KeyValueStore,
	q queue.Queue,
	bridge eventbridge.Bridge,
	reg *registry.Registry,
	logger *slog.Logger,
	opts WorkerOptions,
) *Worker {
	configs := store.NewConfigStore(kv)
	suspensions := store.NewSuspensionStore(kv)
	resolver := identity.NewResolver(configs, logger)
	comp := compiler.NewCompiler(configs, resolver, q, "", logger)

	coord := coordinator.NewCoordinator(id, configs, suspensions, q, reg, bridge, logger)
	poller := queue.NewPoller(q, opts.PollInterval, comp.FireRecurrence, logger)

	return &Worker{
		id:          id,
		coordinator: coord,
		poller:      poller,
		logger:      logger,
		opts:        opts,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if w.opts.Tracing {
		tracer, err := otelhelper.NewTracer(ctx, "hookline-worker")
		if err != nil {
			return err
		}

		w.coordinator.WithTracer(tracer)
	}

	if err := w.poller.Start(ctx); err != nil {
		return err
	}

	defer func() {
		if err := w.poller.Stop(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to stop recurrence poller", "error", err)
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		errCh <- w.coordinator.Start(ctx)
	}()

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		w.logger.InfoContext(ctx, "Shutting down worker...")
		cancel()

		return <-errCh
	case err := <-errCh:
		return err
	}
}
