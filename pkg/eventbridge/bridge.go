// Package eventbridge publishes execution-lifecycle events on a single shared
// channel and fans them out to exactly the watchers of a given job id.
package eventbridge

import (
	"context"

	"github.com/hookline/hookline/pkg/events"
)

// Event is anything the coordinator emits. JobID selects the broadcast room.
type Event interface {
	GetType() events.EventType
	GetJobID() string
}

// Handler receives every event published for a watched job id.
type Handler func(ctx context.Context, event Event)

// Bridge is the pub/sub boundary of the orchestration core. Every published
// event is delivered to every current watcher of that exact job id and to no
// other watcher. Malformed messages are dropped and logged, never propagated.
type Bridge interface {
	Publish(ctx context.Context, event Event) error

	// Watch registers handler for jobID and returns a function that removes
	// it again.
	Watch(jobID string, handler Handler) (unwatch func())

	// Run starts consuming the shared channel and dispatching to watchers.
	Run(ctx context.Context) error

	Close() error
}
