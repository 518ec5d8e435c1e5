package tasks

import (
	"context"
	"encoding/json"

	"github.com/robodyne/go-follow/internal/log"
	"github.com/robodyne/go-follow/pkg/bus"
)

const resultBuffer = 16

// Listener collects task results from the bus and hands them to the
// caller over a channel.
type Listener struct {
	bus     bus.Bus
	results chan Result
}

// NewListener returns a result listener over the given bus.
func NewListener(b bus.Bus) *Listener {
	return &Listener{
		bus:     b,
		results: make(chan Result, resultBuffer),
	}
}

// Results delivers finished task results. The channel closes when Run
// returns.
func (l *Listener) Results() <-chan Result {
	return l.results
}

// Run forwards results until ctx is cancelled. Status reports are
// logged as they pass by.
func (l *Listener) Run(ctx context.Context) error {
	logger := log.Component("listener")
	defer close(l.results)

	taskCh, err := l.bus.Subscribe(ctx, TaskPrefix())
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case sample, ok := <-taskCh:
			if !ok {
				return nil
			}
			taskID, suffix, ok := SplitTaskKey(sample.Key)
			if !ok {
				continue
			}
			switch suffix {
			case suffixStatus:
				var st Status
				if err := json.Unmarshal(sample.Payload, &st); err == nil {
					logger.Debug("status", "task_id", taskID, "status", st.Status, "worker_id", st.WorkerID)
				}
			case suffixResult:
				var res Result
				if err := json.Unmarshal(sample.Payload, &res); err != nil {
					logger.Warn("bad result", "task_id", taskID, "error", err)
					continue
				}
				select {
				case l.results <- res:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
