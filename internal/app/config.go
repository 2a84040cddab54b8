package app

import (
	"flag"
	"strconv"

	"cells/internal/platform/config"
)

// Config represents the command-line parameters for the application.
// Environment variables override the defaults and flags override both.
type Config struct {
	Sim      string `env:"CELLS_SIM"`
	Rules    string `env:"CELLS_RULES"`
	Width    int    `env:"CELLS_WIDTH"`
	Height   int    `env:"CELLS_HEIGHT"`
	Steps    int    `env:"CELLS_STEPS"`
	TPS      int    `env:"CELLS_TPS"`
	Seed     int64  `env:"CELLS_SEED"`
	Workers  int    `env:"CELLS_WORKERS"`
	LogEvery int    `env:"CELLS_LOG_EVERY"`
	Listen   string `env:"CELLS_LISTEN"`
	Remote   bool   `env:"CELLS_ALLOW_REMOTE"`
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Sim: "excitable", Width: 20, Height: 20, Steps: 100, TPS: 0, Seed: 42, LogEvery: 10}
}

// LoadEnv overlays CELLS_* environment variables onto c.
func (c *Config) LoadEnv() error {
	return config.ParseEnv(c)
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.StringVar(&c.Rules, "rules", c.Rules, "rule-set YAML file (selects the rulefile sim when -sim is not set)")
	fs.IntVar(&c.Width, "w", c.Width, "grid width")
	fs.IntVar(&c.Height, "h", c.Height, "grid height")
	fs.IntVar(&c.Steps, "steps", c.Steps, "generations to run (0 runs until interrupted)")
	fs.IntVar(&c.TPS, "tps", c.TPS, "generations per second (0 is unpaced)")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset")
	fs.IntVar(&c.Workers, "workers", c.Workers, "parallel step workers (0 steps on one goroutine)")
	fs.IntVar(&c.LogEvery, "log-every", c.LogEvery, "log a state histogram every N generations (0 disables)")
	fs.StringVar(&c.Listen, "listen", c.Listen, "address for the frame stream server (empty disables)")
	fs.BoolVar(&c.Remote, "allow-remote", c.Remote, "accept stream clients from non-loopback addresses")
}

// SimConfig converts the generic settings into the key/value map sim
// factories read.
func (c *Config) SimConfig() map[string]string {
	m := map[string]string{
		"w":       strconv.Itoa(c.Width),
		"h":       strconv.Itoa(c.Height),
		"seed":    strconv.FormatInt(c.Seed, 10),
		"workers": strconv.Itoa(c.Workers),
	}
	if c.Rules != "" {
		m["rules"] = c.Rules
	}
	return m
}
