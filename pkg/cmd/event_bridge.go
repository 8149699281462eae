package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/hookline/hookline/pkg/channels/gochannel"
	"github.com/hookline/hookline/pkg/channels/kafka"
	"github.com/hookline/hookline/pkg/eventbridge"
)

// NewEventBridge creates the event bridge for the given provider. The
// gochannel provider only reaches watchers inside the same process; use kafka
// whenever the API and the workers are deployed separately.
func NewEventBridge(provider, kafkaBrokers string, logger *slog.Logger) eventbridge.Bridge {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafkaBrokers, "hookline")
		if err != nil {
			panic(fmt.Errorf("failed to create kafka channel: %w", err))
		}

		return eventbridge.NewWatermillBridge(pub, sub, logger)
	case "gochannel":
		pub, sub := gochannel.CreateChannel(wmLogger)

		return eventbridge.NewWatermillBridge(pub, sub, logger)
	default:
		panic("Unsupported event bridge provider: " + provider)
	}
}
