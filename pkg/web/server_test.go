package web

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/robodyne/go-follow/pkg/follow"
)

func TestStatusEndpoint(t *testing.T) {
	want := follow.Status{FramesReceived: 7, Detections: 3}
	s := NewServer("0", func() follow.Status { return want })

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}

	var got follow.Status
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.FramesReceived != 7 || got.Detections != 3 {
		t.Errorf("status = %+v, want %+v", got, want)
	}
}

func TestDecisionHistory(t *testing.T) {
	s := NewServer("0", func() follow.Status { return follow.Status{} })

	for i := 0; i < decisionHistory+10; i++ {
		s.PublishDecision(follow.Decision{Time: time.Now(), Person: i%2 == 0})
	}

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/decisions", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var got []follow.Decision
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got) != decisionHistory {
		t.Errorf("history length = %d, want %d", len(got), decisionHistory)
	}
}
