// The follow bridge: subscribes to camera frames, asks the vision model
// whether a person is in view, and publishes drive commands.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robodyne/go-follow/internal/config"
	"github.com/robodyne/go-follow/internal/log"
	"github.com/robodyne/go-follow/pkg/bus"
	"github.com/robodyne/go-follow/pkg/follow"
	"github.com/robodyne/go-follow/pkg/framelog"
	"github.com/robodyne/go-follow/pkg/vision"
	"github.com/robodyne/go-follow/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	rawLog := flag.Bool("raw-log", false, "capture raw camera payloads to disk")
	rawLogDir := flag.String("raw-log-dir", ".", "directory for raw capture files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel)
	logger := log.Component("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	session := bus.NewZMQBus(cfg.Bus.PubEndpoint, cfg.Bus.SubEndpoint)
	defer session.Close()
	logger.Info("bus connected",
		"pub_endpoint", cfg.Bus.PubEndpoint,
		"sub_endpoint", cfg.Bus.SubEndpoint)

	detCfg := vision.DefaultConfig()
	detCfg.BaseURL = cfg.Vision.OllamaURL
	detCfg.Model = cfg.Vision.Model
	detector := vision.NewOllama(detCfg)
	defer detector.Close()

	follower := follow.New(follow.Config{
		CameraKey:    cfg.Bus.CameraKey,
		CmdVelKey:    cfg.Bus.CmdVelKey,
		ForwardSpeed: cfg.Drive.ForwardSpeed,
		TurnSpeed:    cfg.Drive.TurnSpeed,
	}, session, detector)

	if *rawLog {
		writer, err := framelog.NewWriter(*rawLogDir, "camera")
		if err != nil {
			logger.Error("raw capture open failed", "error", err)
			os.Exit(1)
		}
		defer writer.Close()
		follower.SetRecorder(writer)
		logger.Info("raw capture enabled", "path", writer.Path())
	}

	if cfg.Web.Enabled {
		server := web.NewServer(cfg.Web.Port, follower.Status)
		follower.OnDecision = server.PublishDecision
		server.StartAsync()
		defer server.Shutdown()
	}

	err = follower.Run(ctx)
	if err != nil && ctx.Err() == nil {
		logger.Error("follower stopped", "error", err)
		os.Exit(1)
	}

	// Give in-flight publishes a moment before sockets close.
	time.Sleep(100 * time.Millisecond)
	logger.Info("stopped")
}
