package tasks

import (
	"fmt"
	"math/big"
)

// Builtin routine names.
const (
	RoutineFactorial = "factorial_computation"
	RoutineFibonacci = "fibonacci_sequence"
)

// FactorialDefinition returns the builtin factorial task definition.
func FactorialDefinition() TaskDefinition {
	return TaskDefinition{
		Name:        RoutineFactorial,
		Version:     "1.0.0",
		Description: "Compute n! for a non-negative integer n.",
		Inputs: []TaskInput{
			{Name: "n", Description: "value to compute the factorial of", Required: true},
		},
		Outputs: []TaskOutput{
			{Name: "result", DataType: "string"},
		},
	}
}

// FibonacciDefinition returns the builtin Fibonacci task definition.
func FibonacciDefinition() TaskDefinition {
	return TaskDefinition{
		Name:        RoutineFibonacci,
		Version:     "1.0.0",
		Description: "Compute the first count Fibonacci numbers.",
		Inputs: []TaskInput{
			{Name: "count", Description: "how many terms to produce", Required: false, Default: 10},
		},
		Outputs: []TaskOutput{
			{Name: "sequence", DataType: "array"},
		},
	}
}

// Execute runs the builtin routine named by the job's definition.
func Execute(job Job) (map[string]any, error) {
	if job.Definition == nil {
		return nil, fmt.Errorf("task %s: no definition attached", job.TaskID)
	}
	inputs, err := ValidateInputs(*job.Definition, job.Inputs)
	if err != nil {
		return nil, err
	}

	switch job.Definition.Name {
	case RoutineFactorial:
		n, err := intInput(inputs, "n")
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("factorial of negative %d is undefined", n)
		}
		f := new(big.Int).MulRange(1, int64(max(n, 1)))
		return map[string]any{"result": f.String()}, nil

	case RoutineFibonacci:
		count, err := intInput(inputs, "count")
		if err != nil {
			return nil, err
		}
		if count < 0 || count > 1000 {
			return nil, fmt.Errorf("count %d out of range [0, 1000]", count)
		}
		seq := make([]string, count)
		a, b := big.NewInt(0), big.NewInt(1)
		for i := 0; i < count; i++ {
			seq[i] = a.String()
			a, b = b, new(big.Int).Add(a, b)
		}
		return map[string]any{"sequence": seq}, nil

	default:
		return nil, fmt.Errorf("unknown routine %q", job.Definition.Name)
	}
}

// intInput reads a numeric input. JSON decoding yields float64, YAML
// yields int, so both are accepted.
func intInput(inputs map[string]any, name string) (int, error) {
	v, ok := inputs[name]
	if !ok {
		return 0, fmt.Errorf("missing input %q", name)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("input %q: %v is not an integer", name, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("input %q: unsupported type %T", name, v)
	}
}
