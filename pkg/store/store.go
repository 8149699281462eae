// Package store provides the durable key/value layer backing workflow
// configurations, editor states, tombstones and pause states.
package store

import "context"

// Key prefixes for everything this engine persists. Values are JSON.
const (
	ConfigKeyPrefix    = "workflow_config:"
	StateKeyPrefix     = "workflow_state:"
	TombstoneKeyPrefix = "workflow_tombstone:"
	PauseKeyPrefix     = "workflow_pause:"
)

// KeyValueStore is the abstract string-keyed, JSON-valued store the engine
// consumes. GetDel must be atomic with respect to concurrent callers of the
// same key; single-consumption of pause states depends on it.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	GetDel(ctx context.Context, key string) ([]byte, error)
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
	MultiGet(ctx context.Context, keys []string) ([][]byte, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
