// Package web serves the follow bridge's status dashboard: a JSON API
// for current counters and a websocket feed of drive decisions.
package web

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/robodyne/go-follow/internal/log"
	"github.com/robodyne/go-follow/pkg/follow"
	"github.com/robodyne/go-follow/pkg/hub"
)

const decisionHistory = 100

// StatusProvider reports the bridge's current counters.
type StatusProvider func() follow.Status

// Server is the dashboard server.
type Server struct {
	app    *fiber.App
	port   string
	status StatusProvider

	// recent holds the last decisions so a fresh page has history.
	recent   []follow.Decision
	recentMu sync.RWMutex

	decisionHub *hub.Hub
}

// NewServer creates a dashboard server on the given port.
func NewServer(port string, status StatusProvider) *Server {
	s := &Server{
		port:        port,
		status:      status,
		recent:      make([]follow.Decision, 0, decisionHistory),
		decisionHub: hub.New("decisions"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-follow dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/decisions", s.handleDecisions)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/decisions", websocket.New(s.handleDecisionsWS))

	s.app = app
	return s
}

// Start runs the server. It blocks until Shutdown.
func (s *Server) Start() error {
	go s.decisionHub.Run()
	log.Component("web").Info("dashboard listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Component("web").Error("dashboard server failed", "error", err)
		}
	}()
}

// PublishDecision records a decision and pushes it to websocket clients.
func (s *Server) PublishDecision(d follow.Decision) {
	s.recentMu.Lock()
	s.recent = append(s.recent, d)
	if len(s.recent) > decisionHistory {
		s.recent = s.recent[1:]
	}
	s.recentMu.Unlock()

	if err := s.decisionHub.BroadcastJSON(d); err != nil {
		log.Component("web").Warn("decision broadcast failed", "error", err)
	}
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
