package eventbridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/hookline/hookline/pkg/events"
)

// WatermillBridge implements Bridge over any watermill publisher/subscriber
// pair: the in-memory GoChannel for tests and single-process deployments,
// Kafka for multi-process ones.
type WatermillBridge struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger

	mu       sync.RWMutex
	watchers map[string]map[int]Handler
	nextID   int
}

func NewWatermillBridge(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *WatermillBridge {
	return &WatermillBridge{
		publisher:  pub,
		subscriber: sub,
		logger:     logger.With("module", "event_bridge"),
		watchers:   make(map[string]map[int]Handler),
	}
}

func (b *WatermillBridge) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+watermill.NewULID(), payload)
	msg.Metadata.Set(events.JobIDMetadataKey, event.GetJobID())
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return b.publisher.Publish(events.Topic, msg)
}

func (b *WatermillBridge) Watch(jobID string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.watchers[jobID] == nil {
		b.watchers[jobID] = make(map[int]Handler)
	}

	id := b.nextID
	b.nextID++
	b.watchers[jobID][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		delete(b.watchers[jobID], id)

		if len(b.watchers[jobID]) == 0 {
			delete(b.watchers, jobID)
		}
	}
}

func (b *WatermillBridge) Run(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			b.dispatch(ctx, msg)
			msg.Ack()
		}
	}()

	return nil
}

func (b *WatermillBridge) dispatch(ctx context.Context, msg *message.Message) {
	jobID := msg.Metadata.Get(events.JobIDMetadataKey)
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.watchers[jobID]))

	for _, handler := range b.watchers[jobID] {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event, err := decodeEvent(eventType, msg.Payload)
	if err != nil {
		b.logger.WarnContext(ctx, "Dropping malformed event message",
			"job_id", jobID, "event_type", eventType, "error", err)

		return
	}

	for _, handler := range handlers {
		handler(ctx, event)
	}
}

func decodeEvent(eventType events.EventType, payload []byte) (Event, error) {
	var event Event

	switch eventType {
	case events.ExecutionStartedEvent:
		event = &events.ExecutionStarted{}
	case events.NodeFinishedEvent:
		event = &events.NodeFinished{}
	case events.WorkflowUpdateEvent:
		event = &events.WorkflowUpdate{}
	case events.ExecutionResumedEvent:
		event = &events.ExecutionResumed{}
	case events.ExecutionCompletedEvent:
		event = &events.ExecutionCompleted{}
	case events.ExecutionFailedEvent:
		event = &events.ExecutionFailed{}
	default:
		return nil, &UnknownEventTypeError{Type: string(eventType)}
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (b *WatermillBridge) Close() error {
	if err := b.publisher.Close(); err != nil {
		return err
	}

	return b.subscriber.Close()
}

type UnknownEventTypeError struct {
	Type string
}

func (e *UnknownEventTypeError) Error() string {
	return "unknown event type: " + e.Type
}
