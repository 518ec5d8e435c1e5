package tasks

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robodyne/go-follow/internal/log"
	"github.com/robodyne/go-follow/pkg/bus"
)

// Worker claims announced jobs, runs the ones it is assigned, and
// publishes their status and results.
type Worker struct {
	ID string

	bus  bus.Bus
	pubs *pubSet

	// claimed holds jobs this worker offered to run, until the
	// assigner picks a winner.
	claimed map[string]Job
}

// NewWorker returns a worker with the given ID.
func NewWorker(id string, b bus.Bus) *Worker {
	return &Worker{
		ID:      id,
		bus:     b,
		pubs:    newPubSet(b),
		claimed: make(map[string]Job),
	}
}

// Run processes jobs from the queue until ctx is cancelled. It claims
// every announcement and executes only the jobs assigned to it.
func (w *Worker) Run(ctx context.Context, queue string) error {
	logger := log.Component("worker").With("worker_id", w.ID, "queue", queue)
	defer w.pubs.Close()

	announce, err := w.bus.Subscribe(ctx, AnnounceKey(queue))
	if err != nil {
		return err
	}
	taskCh, err := w.bus.Subscribe(ctx, TaskPrefix())
	if err != nil {
		return err
	}

	logger.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case sample, ok := <-announce:
			if !ok {
				return nil
			}
			var job Job
			if err := json.Unmarshal(sample.Payload, &job); err != nil {
				logger.Warn("bad job announcement", "error", err)
				continue
			}
			w.claimed[job.TaskID] = job
			claim := Claim{TaskID: job.TaskID, WorkerID: w.ID, ClaimedAt: time.Now().UTC()}
			if err := w.pubs.publishJSON(ClaimKey(job.TaskID), claim); err != nil {
				logger.Warn("claim publish failed", "task_id", job.TaskID, "error", err)
				delete(w.claimed, job.TaskID)
				continue
			}
			logger.Debug("claimed job", "task_id", job.TaskID)

		case sample, ok := <-taskCh:
			if !ok {
				return nil
			}
			taskID, suffix, ok := SplitTaskKey(sample.Key)
			if !ok || suffix != suffixAssign {
				continue
			}
			job, mine := w.claimed[taskID]
			if !mine {
				continue
			}
			delete(w.claimed, taskID)

			var assign Assign
			if err := json.Unmarshal(sample.Payload, &assign); err != nil {
				logger.Warn("bad assignment", "task_id", taskID, "error", err)
				continue
			}
			if assign.WorkerID != w.ID {
				logger.Debug("job went elsewhere", "task_id", taskID, "winner", assign.WorkerID)
				continue
			}
			w.execute(logger, job)
		}
	}
}

func (w *Worker) execute(logger *slog.Logger, job Job) {
	logger.Info("running job", "task_id", job.TaskID, "routine", routineName(job))
	w.report(job.TaskID, StatusRunning, 0)

	start := time.Now()
	outputs, err := Execute(job)
	elapsed := time.Since(start)

	result := Result{
		TaskID:      job.TaskID,
		WorkerID:    w.ID,
		ElapsedMs:   elapsed.Milliseconds(),
		CompletedAt: time.Now().UTC(),
	}
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		logger.Warn("job failed", "task_id", job.TaskID, "error", err)
	} else {
		result.Status = StatusCompleted
		result.Outputs = outputs
	}

	w.report(job.TaskID, result.Status, 1)
	if err := w.pubs.publishJSON(ResultKey(job.TaskID), result); err != nil {
		logger.Warn("result publish failed", "task_id", job.TaskID, "error", err)
	}
}

func (w *Worker) report(taskID, status string, progress float64) {
	st := Status{
		TaskID:    taskID,
		WorkerID:  w.ID,
		Status:    status,
		Progress:  progress,
		Timestamp: time.Now().UTC(),
	}
	_ = w.pubs.publishJSON(StatusKey(taskID), st)
}

func routineName(job Job) string {
	if job.Definition == nil {
		return ""
	}
	return job.Definition.Name
}
