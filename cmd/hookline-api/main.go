package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/hookline/hookline/pkg/cmd"
	"github.com/hookline/hookline/pkg/log"
)

func main() {
	app := &cli.Command{
		Name:                  "hookline-api",
		EnableShellCompletion: true,
		Usage:                 "Serve the workflow deploy, webhook and resume endpoints",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Port to listen on",
				Value:   9091,
				Sources: cli.EnvVars("PORT"),
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
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BRIDGE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka brokers for the kafka event bridge",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Public base URL used to build webhook callback URLs",
				Value:   "http://localhost:9091",
				Sources: cli.EnvVars("BASE_URL"),
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

			logger := log.WithModule("hookline-api")
			logger.InfoContext(ctx, "Initializing hookline API")

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

			api := NewAPI(logger, kv, q, bridge, command.String("base-url"))

			return api.Listen(ctx, command.Int("port"))
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.WithModule("hookline-api").Error("API server exited", "error", err)
		os.Exit(1)
	}
}
