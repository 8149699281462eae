package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hookline/hookline/pkg/models"
)

// ConfigStore persists workflow configurations, editor-saved states and
// rename tombstones. Configs are keyed by workflow id, editor states by
// sanitized name. Saves use last-writer-wins semantics; the execution path
// only ever reads.
type ConfigStore struct {
	kv KeyValueStore
}

func NewConfigStore(kv KeyValueStore) *ConfigStore {
	return &ConfigStore{kv: kv}
}

// PutConfig writes the active config for a workflow id, overwriting in place.
func (s *ConfigStore) PutConfig(ctx context.Context, cfg *models.WorkflowConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config %s: %w", cfg.ID, err)
	}

	return s.kv.Set(ctx, ConfigKeyPrefix+cfg.ID, payload)
}

func (s *ConfigStore) GetConfig(ctx context.Context, id string) (*models.WorkflowConfig, error) {
	payload, err := s.kv.Get(ctx, ConfigKeyPrefix+id)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrConfigNotFound
		}

		return nil, err
	}

	var cfg models.WorkflowConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", id, err)
	}

	return &cfg, nil
}

func (s *ConfigStore) DeleteConfig(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, ConfigKeyPrefix+id)
}

// SaveState persists an editor-saved workflow document under its sanitized
// name. Re-saving the same name increments the version by exactly one and
// preserves the original CreatedAt.
func (s *ConfigStore) SaveState(ctx context.Context, cfg *models.WorkflowConfig) (*models.WorkflowConfig, error) {
	key := StateKeyPrefix + models.SanitizeName(cfg.Name)
	now := time.Now().UTC()

	existing, err := s.LoadState(ctx, cfg.Name)

	switch {
	case err == nil:
		cfg.Version = existing.Version + 1
		cfg.CreatedAt = existing.CreatedAt

		// the id is assigned at deploy time; a re-save from the editor must
		// not lose it
		if cfg.ID == "" {
			cfg.ID = existing.ID
		}
	case errors.Is(err, ErrStateNotFound):
		cfg.Version = 1
		cfg.CreatedAt = now
	default:
		return nil, err
	}

	cfg.UpdatedAt = now

	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal state %s: %w", cfg.Name, err)
	}

	if err := s.kv.Set(ctx, key, payload); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (s *ConfigStore) LoadState(ctx context.Context, name string) (*models.WorkflowConfig, error) {
	payload, err := s.kv.Get(ctx, StateKeyPrefix+models.SanitizeName(name))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrStateNotFound
		}

		return nil, err
	}

	var cfg models.WorkflowConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal state %s: %w", name, err)
	}

	return &cfg, nil
}

// BindStateID records the deployed workflow id on the editor-saved document
// under name, so later deploys of the same document resolve to the same id.
// Missing state is not an error.
func (s *ConfigStore) BindStateID(ctx context.Context, name, id string) error {
	state, err := s.LoadState(ctx, name)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil
		}

		return err
	}

	if state.ID == id {
		return nil
	}

	state.ID = id

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state %s: %w", name, err)
	}

	return s.kv.Set(ctx, StateKeyPrefix+models.SanitizeName(name), payload)
}

// ListStates returns every editor-saved workflow document. Entries that fail
// to decode are skipped rather than failing the listing.
func (s *ConfigStore) ListStates(ctx context.Context) ([]*models.WorkflowConfig, error) {
	keys, err := s.kv.ScanKeys(ctx, StateKeyPrefix)
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*models.WorkflowConfig{}, nil
	}

	values, err := s.kv.MultiGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	states := make([]*models.WorkflowConfig, 0, len(values))

	for _, payload := range values {
		if payload == nil {
			continue
		}

		var cfg models.WorkflowConfig
		if err := json.Unmarshal(payload, &cfg); err != nil {
			continue
		}

		states = append(states, &cfg)
	}

	return states, nil
}

func (s *ConfigStore) PutTombstone(ctx context.Context, id string, tombstone *models.Tombstone) error {
	payload, err := json.Marshal(tombstone)
	if err != nil {
		return fmt.Errorf("marshal tombstone %s: %w", id, err)
	}

	return s.kv.Set(ctx, TombstoneKeyPrefix+id, payload)
}

func (s *ConfigStore) GetTombstone(ctx context.Context, id string) (*models.Tombstone, error) {
	payload, err := s.kv.Get(ctx, TombstoneKeyPrefix+id)
	if err != nil {
		return nil, err
	}

	var tombstone models.Tombstone
	if err := json.Unmarshal(payload, &tombstone); err != nil {
		return nil, fmt.Errorf("unmarshal tombstone %s: %w", id, err)
	}

	return &tombstone, nil
}

func (s *ConfigStore) DeleteTombstone(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, TombstoneKeyPrefix+id)
}

func (s *ConfigStore) HealthCheck(ctx context.Context) error {
	return s.kv.HealthCheck(ctx)
}
