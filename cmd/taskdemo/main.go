// taskdemo runs the whole task queue in one process: an assigner, a few
// workers, a result listener, and a client submitting the builtin jobs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/robodyne/go-follow/internal/log"
	"github.com/robodyne/go-follow/pkg/bus"
	"github.com/robodyne/go-follow/pkg/tasks"
)

func main() {
	workers := flag.Int("workers", 2, "number of workers to start")
	queue := flag.String("queue", "user_tasks", "queue name")
	defPath := flag.String("definition", "", "optional task definition file (YAML or JSON)")
	n := flag.Int("n", 20, "factorial input")
	count := flag.Int("count", 12, "fibonacci term count")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	log.Init(*logLevel)
	logger := log.Component("taskdemo")

	b := bus.NewMemoryBus()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	assigner := tasks.NewAssigner(b)
	listener := tasks.NewListener(b)
	go func() { _ = assigner.Run(ctx) }()
	go func() { _ = listener.Run(ctx) }()
	for i := 0; i < *workers; i++ {
		w := tasks.NewWorker(fmt.Sprintf("worker-%d", i+1), b)
		go func() { _ = w.Run(ctx, *queue) }()
	}
	time.Sleep(50 * time.Millisecond)

	client := tasks.NewClient(b)
	defer client.Close()

	var jobs []tasks.Job
	if *defPath != "" {
		def, err := tasks.LoadDefinition(*defPath)
		if err != nil {
			logger.Error("definition load failed", "error", err)
			os.Exit(1)
		}
		jobs = append(jobs, tasks.NewJob(*queue, def, map[string]any{
			"n": *n, "count": *count,
		}))
	} else {
		jobs = append(jobs,
			tasks.NewJob(*queue, tasks.FactorialDefinition(), map[string]any{"n": *n}),
			tasks.NewJob(*queue, tasks.FibonacciDefinition(), map[string]any{"count": *count}),
		)
	}

	for _, job := range jobs {
		if err := client.Submit(job); err != nil {
			logger.Error("submit failed", "task_id", job.TaskID, "error", err)
			os.Exit(1)
		}
		logger.Info("submitted", "task_id", job.TaskID, "routine", job.Definition.Name)
	}

	done := 0
	for done < len(jobs) {
		select {
		case res, ok := <-listener.Results():
			if !ok {
				logger.Error("listener closed before all results arrived")
				os.Exit(1)
			}
			done++
			if res.Status != tasks.StatusCompleted {
				logger.Warn("task failed",
					"task_id", res.TaskID, "worker_id", res.WorkerID, "error", res.Error)
				continue
			}
			logger.Info("task completed",
				"task_id", res.TaskID,
				"worker_id", res.WorkerID,
				"elapsed_ms", res.ElapsedMs)
			for name, value := range res.Outputs {
				fmt.Printf("%s %s = %v\n", res.TaskID, name, value)
			}
		case <-ctx.Done():
			logger.Error("timed out waiting for results", "received", done, "want", len(jobs))
			os.Exit(1)
		}
	}
}
