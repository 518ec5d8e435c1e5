package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robodyne/go-follow/pkg/bus"
)

func TestSplitTaskKey(t *testing.T) {
	tests := []struct {
		key    string
		taskID string
		suffix string
		ok     bool
	}{
		{"comp/tasks/abc-123/claim", "abc-123", "claim", true},
		{"comp/tasks/abc-123/result", "abc-123", "result", true},
		{"comp/queues/user_tasks/announce", "", "", false},
		{"comp/tasks/", "", "", false},
		{"comp/tasks/abc-123", "", "", false},
		{"rt/cmd_vel", "", "", false},
	}
	for _, tt := range tests {
		taskID, suffix, ok := SplitTaskKey(tt.key)
		if taskID != tt.taskID || suffix != tt.suffix || ok != tt.ok {
			t.Errorf("SplitTaskKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.key, taskID, suffix, ok, tt.taskID, tt.suffix, tt.ok)
		}
	}
}

func TestTaskKeys(t *testing.T) {
	if got, want := AnnounceKey("user_tasks"), "comp/queues/user_tasks/announce"; got != want {
		t.Errorf("AnnounceKey = %q, want %q", got, want)
	}
	if got, want := ClaimKey("id1"), "comp/tasks/id1/claim"; got != want {
		t.Errorf("ClaimKey = %q, want %q", got, want)
	}
	if got, want := ResultKey("id1"), "comp/tasks/id1/result"; got != want {
		t.Errorf("ResultKey = %q, want %q", got, want)
	}
}

func TestExecuteFactorial(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "1"},
		{1, "1"},
		{5, "120"},
		{10, "3628800"},
		{25, "15511210043330985984000000"},
	}
	for _, tt := range tests {
		job := NewJob("q", FactorialDefinition(), map[string]any{"n": tt.n})
		out, err := Execute(job)
		if err != nil {
			t.Fatalf("Execute(n=%d): %v", tt.n, err)
		}
		if got := out["result"]; got != tt.want {
			t.Errorf("factorial(%d) = %v, want %s", tt.n, got, tt.want)
		}
	}
}

func TestExecuteFactorialNegative(t *testing.T) {
	job := NewJob("q", FactorialDefinition(), map[string]any{"n": -3})
	if _, err := Execute(job); err == nil {
		t.Error("Execute(n=-3) succeeded, want error")
	}
}

func TestExecuteFibonacci(t *testing.T) {
	job := NewJob("q", FibonacciDefinition(), map[string]any{"count": 8})
	out, err := Execute(job)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	seq, ok := out["sequence"].([]string)
	if !ok {
		t.Fatalf("sequence has type %T, want []string", out["sequence"])
	}
	want := []string{"0", "1", "1", "2", "3", "5", "8", "13"}
	if len(seq) != len(want) {
		t.Fatalf("len(sequence) = %d, want %d", len(seq), len(want))
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Errorf("sequence[%d] = %s, want %s", i, seq[i], want[i])
		}
	}
}

func TestExecuteFibonacciDefaultCount(t *testing.T) {
	job := NewJob("q", FibonacciDefinition(), map[string]any{})
	out, err := Execute(job)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	seq := out["sequence"].([]string)
	if len(seq) != 10 {
		t.Errorf("default sequence length = %d, want 10", len(seq))
	}
}

func TestExecuteUnknownRoutine(t *testing.T) {
	def := TaskDefinition{Name: "flux_capacitor", Version: "1.0.0"}
	job := NewJob("q", def, nil)
	if _, err := Execute(job); err == nil {
		t.Error("Execute with unknown routine succeeded, want error")
	}
}

func TestExecuteNonIntegerInput(t *testing.T) {
	// JSON decoding hands numbers over as float64.
	job := NewJob("q", FactorialDefinition(), map[string]any{"n": 5.5})
	if _, err := Execute(job); err == nil {
		t.Error("Execute(n=5.5) succeeded, want error")
	}
}

func TestValidateInputsMissingRequired(t *testing.T) {
	if _, err := ValidateInputs(FactorialDefinition(), map[string]any{}); err == nil {
		t.Error("ValidateInputs without n succeeded, want error")
	}
}

func TestLoadDefinitionYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factorial.yaml")
	data := `task_definition:
  name: factorial_computation
  version: "1.0.0"
  inputs:
    - name: n
      required: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	def, err := LoadDefinition(path)
	if err != nil {
		t.Fatalf("LoadDefinition: %v", err)
	}
	if def.Name != RoutineFactorial {
		t.Errorf("Name = %q, want %q", def.Name, RoutineFactorial)
	}
	if len(def.Inputs) != 1 || def.Inputs[0].Name != "n" || !def.Inputs[0].Required {
		t.Errorf("Inputs = %+v, want one required input n", def.Inputs)
	}
}

func TestLoadDefinitionJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fib.json")
	data := `{"task_definition": {"name": "fibonacci_sequence", "version": "1.0.0"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	def, err := LoadDefinition(path)
	if err != nil {
		t.Fatalf("LoadDefinition: %v", err)
	}
	if def.Name != RoutineFibonacci {
		t.Errorf("Name = %q, want %q", def.Name, RoutineFibonacci)
	}
}

func TestLoadDefinitionMissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte(`{"task_definition": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDefinition(path); err == nil {
		t.Error("LoadDefinition without a name succeeded, want error")
	}
}

func TestQueueEndToEnd(t *testing.T) {
	b := bus.NewMemoryBus()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assigner := NewAssigner(b)
	listener := NewListener(b)
	w1 := NewWorker("worker-1", b)
	w2 := NewWorker("worker-2", b)

	go func() { _ = assigner.Run(ctx) }()
	go func() { _ = listener.Run(ctx) }()
	go func() { _ = w1.Run(ctx, "user_tasks") }()
	go func() { _ = w2.Run(ctx, "user_tasks") }()

	// Let the subscriptions settle before announcing work.
	time.Sleep(20 * time.Millisecond)

	client := NewClient(b)
	defer client.Close()

	factJob := NewJob("user_tasks", FactorialDefinition(), map[string]any{"n": 12})
	fibJob := NewJob("user_tasks", FibonacciDefinition(), map[string]any{"count": 5})
	if err := client.Submit(factJob); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := client.Submit(fibJob); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	results := make(map[string]Result)
	timeout := time.After(3 * time.Second)
	for len(results) < 2 {
		select {
		case res, ok := <-listener.Results():
			if !ok {
				t.Fatal("result channel closed early")
			}
			results[res.TaskID] = res
		case <-timeout:
			t.Fatalf("got %d results before timeout, want 2", len(results))
		}
	}

	fact := results[factJob.TaskID]
	if fact.Status != StatusCompleted {
		t.Fatalf("factorial status = %s (%s), want %s", fact.Status, fact.Error, StatusCompleted)
	}
	if got := fact.Outputs["result"]; got != "479001600" {
		t.Errorf("factorial(12) = %v, want 479001600", got)
	}
	if fact.WorkerID != "worker-1" && fact.WorkerID != "worker-2" {
		t.Errorf("factorial ran on %q, want one of the two workers", fact.WorkerID)
	}

	fib := results[fibJob.TaskID]
	if fib.Status != StatusCompleted {
		t.Fatalf("fibonacci status = %s (%s), want %s", fib.Status, fib.Error, StatusCompleted)
	}
	seq, ok := fib.Outputs["sequence"].([]any)
	if !ok {
		t.Fatalf("sequence has type %T, want []any", fib.Outputs["sequence"])
	}
	if len(seq) != 5 || seq[4] != "3" {
		t.Errorf("sequence = %v, want 5 terms ending in 3", seq)
	}
}

func TestSubmitRejectsIncompleteJob(t *testing.T) {
	b := bus.NewMemoryBus()
	defer b.Close()

	client := NewClient(b)
	defer client.Close()

	if err := client.Submit(Job{Queue: "q"}); err == nil {
		t.Error("Submit without task ID succeeded, want error")
	}
	if err := client.Submit(Job{TaskID: "id"}); err == nil {
		t.Error("Submit without queue succeeded, want error")
	}
}
