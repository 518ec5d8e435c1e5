// Package vision decides whether a decoded camera frame shows a person.
// The production backend is a local Ollama vision-language model; tests
// and dry runs use the mock.
package vision

import (
	"context"
	"time"

	"github.com/robodyne/go-follow/pkg/rosmsg"
)

// Verdict is one classification result.
type Verdict struct {
	Person bool   // a person is clearly visible
	Answer string // the model's raw answer, for logging
}

// Detector is the interface for person-classification backends.
// A failed Detect must be treated by callers as "no person": the safe
// driving default is stop.
type Detector interface {
	// Detect classifies a single decoded frame.
	Detect(ctx context.Context, frame *rosmsg.Frame) (Verdict, error)

	// Close releases resources.
	Close() error
}

// Config holds detector configuration.
type Config struct {
	BaseURL string        // Ollama base URL
	Model   string        // vision-language model tag
	Timeout time.Duration // per-inference timeout

	// InputWidth/InputHeight is the size frames are downscaled to before
	// inference. Small inputs keep latency tolerable on CPU.
	InputWidth  int
	InputHeight int
	JPEGQuality int
}

// DefaultConfig returns production defaults for the Ollama backend.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:11434",
		Model:       "qwen2.5vl:3b",
		Timeout:     15 * time.Second,
		InputWidth:  160,
		InputHeight: 90,
		JPEGQuality: 85,
	}
}
