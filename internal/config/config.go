package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration file.
type Config struct {
	Addr    string `yaml:"addr"`
	DataDir string `yaml:"data_dir"`

	Playback Playback `yaml:"playback"`
}

type Playback struct {
	// Initial speed factor for viewers and the replay tool.
	Speed float64 `yaml:"speed"`
	// Scheduling tick cadence.
	TickRateHz int `yaml:"tick_rate_hz"`
}

func Defaults() Config {
	return Config{
		Addr:    ":5420",
		DataDir: "./data",
		Playback: Playback{
			Speed:      1,
			TickRateHz: 60,
		},
	}
}

// Load reads a config file over the defaults. A missing file is an error;
// callers that treat the file as optional check os.IsNotExist.
func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("server.yaml: %w", err)
	}
	if c.Playback.Speed <= 0 {
		c.Playback.Speed = 1
	}
	if c.Playback.TickRateHz <= 0 {
		c.Playback.TickRateHz = 60
	}
	return c, nil
}
