package cmd

import (
	"fmt"
	"strings"

	"github.com/hookline/hookline/pkg/queue"
	"github.com/hookline/hookline/pkg/store"
)

// NewKeyValueStore builds the durable store from a URL: redis:// connects a
// Redis client, "memory" keeps everything in-process (tests, local runs).
func NewKeyValueStore(url string) store.KeyValueStore {
	if url == "memory" {
		return store.NewMemoryStore()
	}

	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		kv, err := store.NewRedisStoreFromURL(url)
		if err != nil {
			panic(fmt.Errorf("failed to create redis store: %w", err))
		}

		return kv
	}

	panic("Unsupported store url: " + url)
}

// NewQueue builds the execution queue from a URL, same scheme as the store.
func NewQueue(url string) queue.Queue {
	if url == "memory" {
		return queue.NewMemoryQueue()
	}

	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		q, err := queue.NewRedisQueueFromURL(url)
		if err != nil {
			panic(fmt.Errorf("failed to create redis queue: %w", err))
		}

		return q
	}

	panic("Unsupported queue url: " + url)
}
