// Package tasks implements the compute-task queue the demo jobs travel
// through: announce, claim, assign, status, result, all JSON messages
// over the bus keyspace under "comp/".
package tasks

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus values, in rough lifecycle order.
const (
	StatusPending   = "pending"
	StatusClaimed   = "claimed"
	StatusAssigned  = "assigned"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TaskDefinition describes a runnable task. Definitions ship in YAML or
// JSON files and name one of the builtin routines.
type TaskDefinition struct {
	Name        string           `json:"name" yaml:"name"`
	Version     string           `json:"version" yaml:"version"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs      []TaskInput      `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs     []TaskOutput     `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Requires    *TaskRequirement `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// TaskInput declares one named input.
type TaskInput struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// TaskOutput declares one named output.
type TaskOutput struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	DataType    string `json:"data_type,omitempty" yaml:"data_type,omitempty"`
}

// TaskRequirement carries resource hints. Advisory only.
type TaskRequirement struct {
	MemoryMB       uint64 `json:"memory_mb,omitempty" yaml:"memory_mb,omitempty"`
	TimeoutSeconds uint64 `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// Job is one announced unit of work.
type Job struct {
	TaskID         string          `json:"task_id"`
	Queue          string          `json:"queue"`
	Definition     *TaskDefinition `json:"task_definition,omitempty"`
	Inputs         map[string]any  `json:"inputs"`
	Priority       int             `json:"priority"`
	CreatedAt      time.Time       `json:"created_at"`
	TimeoutSeconds uint64          `json:"timeout_seconds"`
}

// NewJob creates a job for the given queue with a fresh task ID.
func NewJob(queue string, def TaskDefinition, inputs map[string]any) Job {
	return Job{
		TaskID:         uuid.NewString(),
		Queue:          queue,
		Definition:     &def,
		Inputs:         inputs,
		CreatedAt:      time.Now().UTC(),
		TimeoutSeconds: 300,
	}
}

// Claim is a worker's offer to run a job.
type Claim struct {
	TaskID    string    `json:"task_id"`
	WorkerID  string    `json:"worker_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// Assign grants a job to exactly one worker.
type Assign struct {
	TaskID     string    `json:"task_id"`
	WorkerID   string    `json:"worker_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Status is a progress report.
type Status struct {
	TaskID    string    `json:"task_id"`
	WorkerID  string    `json:"worker_id"`
	Status    string    `json:"status"`
	Progress  float64   `json:"progress"`
	Timestamp time.Time `json:"timestamp"`
}

// Result carries a finished job's outputs, or its error.
type Result struct {
	TaskID      string         `json:"task_id"`
	WorkerID    string         `json:"worker_id"`
	Status      string         `json:"status"`
	Outputs     map[string]any `json:"outputs,omitempty"`
	Error       string         `json:"error,omitempty"`
	ElapsedMs   int64          `json:"elapsed_ms"`
	CompletedAt time.Time      `json:"completed_at"`
}
