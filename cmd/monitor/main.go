// monitor subscribes to the drive command topic and prints each Twist
// as it goes by. Useful for watching what the bridge tells the robot.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/robodyne/go-follow/internal/config"
	"github.com/robodyne/go-follow/internal/log"
	"github.com/robodyne/go-follow/pkg/bus"
	"github.com/robodyne/go-follow/pkg/rosmsg"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel)
	logger := log.Component("monitor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	session := bus.NewZMQBus(cfg.Bus.PubEndpoint, cfg.Bus.SubEndpoint)
	defer session.Close()

	samples, err := session.Subscribe(ctx, cfg.Bus.CmdVelKey)
	if err != nil {
		logger.Error("subscribe failed", "key", cfg.Bus.CmdVelKey, "error", err)
		os.Exit(1)
	}
	logger.Info("watching drive commands", "key", cfg.Bus.CmdVelKey)

	count := 0
	for sample := range samples {
		twist, err := rosmsg.DecodeTwist(sample.Payload)
		if err != nil {
			logger.Warn("undecodable command", "bytes", len(sample.Payload), "error", err)
			continue
		}
		count++

		state := "STOPPED"
		if twist.Linear.X != 0 || twist.Angular.Z != 0 {
			state = "MOVING"
		}
		logger.Info("cmd_vel",
			"n", count,
			"state", state,
			"linear_x", twist.Linear.X,
			"linear_y", twist.Linear.Y,
			"linear_z", twist.Linear.Z,
			"angular_x", twist.Angular.X,
			"angular_y", twist.Angular.Y,
			"angular_z", twist.Angular.Z)
	}
}
