package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/robodyne/go-follow/pkg/follow"
	"github.com/robodyne/go-follow/pkg/hub"
)

// handleStatus returns the bridge's current counters.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	if s.status == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "status source not configured",
		})
	}
	return c.JSON(s.status())
}

// handleDecisions returns the recent decision history, oldest first.
func (s *Server) handleDecisions(c *fiber.Ctx) error {
	s.recentMu.RLock()
	defer s.recentMu.RUnlock()
	out := make([]follow.Decision, len(s.recent))
	copy(out, s.recent)
	return c.JSON(out)
}

// handleDecisionsWS streams decisions live. Recent history is replayed
// first so the client starts with context.
func (s *Server) handleDecisionsWS(c *websocket.Conn) {
	s.recentMu.RLock()
	for _, d := range s.recent {
		if err := c.WriteJSON(d); err != nil {
			s.recentMu.RUnlock()
			c.Close()
			return
		}
	}
	s.recentMu.RUnlock()

	client := hub.NewClient(s.decisionHub, c)
	client.Run()
}
