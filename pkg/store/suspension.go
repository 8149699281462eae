package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hookline/hookline/pkg/models"
)

// SuspensionStore persists paused executions under (workflowId, jobId).
// Consume reads and deletes in one atomic step so a double-resume can never
// replay the same suspended state twice, even across processes.
type SuspensionStore struct {
	kv KeyValueStore
}

func NewSuspensionStore(kv KeyValueStore) *SuspensionStore {
	return &SuspensionStore{kv: kv}
}

func pauseKey(workflowID, jobID string) string {
	return PauseKeyPrefix + workflowID + ":" + jobID
}

func (s *SuspensionStore) Save(ctx context.Context, workflowID, jobID string, state *models.PauseState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal pause state %s/%s: %w", workflowID, jobID, err)
	}

	return s.kv.Set(ctx, pauseKey(workflowID, jobID), payload)
}

// Consume removes and returns the pause state for (workflowId, jobId).
// A second call for the same pair returns ErrNoPausedState. A stored state
// missing its context or remaining actions returns ErrCorruptPauseState.
func (s *SuspensionStore) Consume(ctx context.Context, workflowID, jobID string) (*models.PauseState, error) {
	payload, err := s.kv.GetDel(ctx, pauseKey(workflowID, jobID))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, ErrNoPausedState
		}

		return nil, err
	}

	var state models.PauseState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPauseState, err)
	}

	if state.Context == nil || len(state.RemainingActions) == 0 {
		return nil, fmt.Errorf("%w: missing context or remaining actions", ErrCorruptPauseState)
	}

	return &state, nil
}
