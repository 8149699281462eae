package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/hookline/hookline/pkg/cmd"
	"github.com/hookline/hookline/pkg/log"
)

func main() {
	app := &cli.Command{
		Name:                  "hookline-worker",
		EnableShellCompletion: true,
		Usage:                 "Start a worker that claims and executes workflow runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "store-url",
				Usage:    "Key/value store URL (redis://... or 'memory')",
				Required: true,
				Sources:  cli.EnvVars("STORE_URL"),
			},
			&cli.StringFlag{
				Name:     "queue-url",
				Usage:    "Execution queue URL (redis://... or 'memory')",
				Required: true,
				Sources:  cli.EnvVars("QUEUE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bridge",
				Usage:   "Event bridge provider (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BRIDGE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka brokers for the kafka event bridge",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "How often to check recurring schedules for due entries",
				Value:   time.Minute,
				Sources: cli.EnvVars("POLL_INTERVAL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces for every execution",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("hookline-worker").With("worker_id", workerID)
			logger.InfoContext(ctx, "Initializing hookline worker")

			kv := cmd.NewKeyValueStore(command.String("store-url"))
			defer func() {
				if err := kv.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close store", "error", err)
				}
			}()

			q := cmd.NewQueue(command.String("queue-url"))
			defer func() {
				if err := q.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close queue", "error", err)
				}
			}()

			bridge := cmd.NewEventBridge(command.String("event-bridge"), command.String("kafka-brokers"), logger)
			defer func() {
				if err := bridge.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bridge", "error", err)
				}
			}()

			registry := cmd.NewRegistry(logger)

			worker := NewWorker(workerID, kv, q, bridge, registry, logger, WorkerOptions{
				PollInterval: command.Duration("poll-interval"),
				Tracing:      command.Bool("tracing"),
			})

			if err := worker.Run(ctx); err != nil {
				logger.ErrorContext(ctx, "Worker exited with error", "error", err)

				return err
			}

			return nil
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.WithModule("hookline-worker").Error("Worker exited", "error", err)
		os.Exit(1)
	}
}
