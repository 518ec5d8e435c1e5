package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robodyne/go-follow/internal/log"
	"github.com/robodyne/go-follow/pkg/bus"
)

// Assigner resolves claim races: the first claim it sees for a task
// wins, every later claim for the same task is ignored.
type Assigner struct {
	bus  bus.Bus
	pubs *pubSet

	assigned map[string]string
}

// NewAssigner returns an assigner over the given bus.
func NewAssigner(b bus.Bus) *Assigner {
	return &Assigner{
		bus:      b,
		pubs:     newPubSet(b),
		assigned: make(map[string]string),
	}
}

// Run watches claims and assigns each task to its first claimant until
// ctx is cancelled.
func (a *Assigner) Run(ctx context.Context) error {
	logger := log.Component("assigner")
	defer a.pubs.Close()

	taskCh, err := a.bus.Subscribe(ctx, TaskPrefix())
	if err != nil {
		return err
	}

	logger.Info("assigner started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case sample, ok := <-taskCh:
			if !ok {
				return nil
			}
			taskID, suffix, ok := SplitTaskKey(sample.Key)
			if !ok || suffix != suffixClaim {
				continue
			}
			if winner, done := a.assigned[taskID]; done {
				logger.Debug("late claim ignored", "task_id", taskID, "winner", winner)
				continue
			}

			var claim Claim
			if err := json.Unmarshal(sample.Payload, &claim); err != nil {
				logger.Warn("bad claim", "task_id", taskID, "error", err)
				continue
			}
			a.assigned[taskID] = claim.WorkerID

			assign := Assign{
				TaskID:     taskID,
				WorkerID:   claim.WorkerID,
				AssignedAt: time.Now().UTC(),
			}
			if err := a.pubs.publishJSON(AssignKey(taskID), assign); err != nil {
				logger.Warn("assign publish failed", "task_id", taskID, "error", err)
				delete(a.assigned, taskID)
				continue
			}
			st := Status{
				TaskID:    taskID,
				WorkerID:  claim.WorkerID,
				Status:    StatusAssigned,
				Timestamp: time.Now().UTC(),
			}
			_ = a.pubs.publishJSON(StatusKey(taskID), st)
			logger.Info("task assigned", "task_id", taskID, "worker_id", claim.WorkerID)
		}
	}
}
