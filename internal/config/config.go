// Package config provides configuration for go-follow commands: an
// optional TOML file with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Defaults for a local setup: a ZMQ broker on localhost and Ollama on its
// standard port.
const (
	DefaultPubEndpoint = "tcp://127.0.0.1:5555"
	DefaultSubEndpoint = "tcp://127.0.0.1:5556"
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultModel       = "qwen2.5vl:3b"
	DefaultWebPort     = "8090"

	DefaultCameraKey = "rt/camera/camera/color/image_raw"
	DefaultCmdVelKey = "rt/cmd_vel"
)

// Config holds the settings for the follow bridge and its tools.
type Config struct {
	LogLevel string `toml:"log_level"`

	Bus    BusConfig    `toml:"bus"`
	Vision VisionConfig `toml:"vision"`
	Drive  DriveConfig  `toml:"drive"`
	Web    WebConfig    `toml:"web"`
}

// BusConfig selects the broker endpoints and topic keys.
type BusConfig struct {
	PubEndpoint string `toml:"pub_endpoint"`
	SubEndpoint string `toml:"sub_endpoint"`
	CameraKey   string `toml:"camera_key"`
	CmdVelKey   string `toml:"cmd_vel_key"`
}

// VisionConfig selects the classification backend.
type VisionConfig struct {
	OllamaURL string `toml:"ollama_url"`
	Model     string `toml:"model"`
}

// DriveConfig sets the velocities the bridge publishes.
type DriveConfig struct {
	ForwardSpeed float64 `toml:"forward_speed"`
	TurnSpeed    float64 `toml:"turn_speed"`
}

// WebConfig configures the status dashboard.
type WebConfig struct {
	Enabled bool   `toml:"enabled"`
	Port    string `toml:"port"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Bus: BusConfig{
			PubEndpoint: DefaultPubEndpoint,
			SubEndpoint: DefaultSubEndpoint,
			CameraKey:   DefaultCameraKey,
			CmdVelKey:   DefaultCmdVelKey,
		},
		Vision: VisionConfig{
			OllamaURL: DefaultOllamaURL,
			Model:     DefaultModel,
		},
		Drive: DriveConfig{
			ForwardSpeed: 0.3,
			TurnSpeed:    0.0,
		},
		Web: WebConfig{
			Enabled: true,
			Port:    DefaultWebPort,
		},
	}
}

// Load reads the TOML file at path (if path is non-empty), then applies
// environment overrides. Missing fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Environment variables beat the file so a single deployment image can be
// repointed without editing the config.
func applyEnv(cfg *Config) {
	envString(&cfg.LogLevel, "FOLLOW_LOG_LEVEL")
	envString(&cfg.Bus.PubEndpoint, "FOLLOW_PUB_ENDPOINT")
	envString(&cfg.Bus.SubEndpoint, "FOLLOW_SUB_ENDPOINT")
	envString(&cfg.Bus.CameraKey, "FOLLOW_CAMERA_KEY")
	envString(&cfg.Bus.CmdVelKey, "FOLLOW_CMD_VEL_KEY")
	envString(&cfg.Vision.OllamaURL, "OLLAMA_URL")
	envString(&cfg.Vision.Model, "OLLAMA_MODEL")
	envString(&cfg.Web.Port, "FOLLOW_WEB_PORT")
	envFloat(&cfg.Drive.ForwardSpeed, "FOLLOW_FORWARD_SPEED")
	envFloat(&cfg.Drive.TurnSpeed, "FOLLOW_TURN_SPEED")
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func (c Config) validate() error {
	if c.Bus.PubEndpoint == "" || c.Bus.SubEndpoint == "" {
		return fmt.Errorf("config: bus endpoints must not be empty")
	}
	if c.Bus.CameraKey == "" || c.Bus.CmdVelKey == "" {
		return fmt.Errorf("config: bus keys must not be empty")
	}
	if c.Vision.OllamaURL == "" || c.Vision.Model == "" {
		return fmt.Errorf("config: vision backend must not be empty")
	}
	return nil
}
