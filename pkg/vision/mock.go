package vision

import (
	"context"
	"sync"

	"github.com/robodyne/go-follow/pkg/rosmsg"
)

// MockDetector is a scripted Detector for tests and dry runs.
type MockDetector struct {
	mu sync.Mutex

	// Verdicts are returned in order; the last one repeats.
	Verdicts []Verdict

	// Err, when set, is returned on every call instead of a verdict.
	Err error

	calls int
}

// Detect returns the next scripted verdict.
func (m *MockDetector) Detect(_ context.Context, _ *rosmsg.Frame) (Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		m.calls++
		return Verdict{}, m.Err
	}
	if len(m.Verdicts) == 0 {
		m.calls++
		return Verdict{Answer: "no"}, nil
	}

	i := m.calls
	if i >= len(m.Verdicts) {
		i = len(m.Verdicts) - 1
	}
	m.calls++
	return m.Verdicts[i], nil
}

// Calls reports how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockDetector) Close() error { return nil }

var _ Detector = (*MockDetector)(nil)
