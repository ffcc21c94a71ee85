package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pixil98/go-errors"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Client    ClientConfig    `toml:"client"`
	Logging   LoggingConfig   `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// Duration is a time.Duration written as a Go duration string ("1s", "20ms").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type ServerConfig struct {
	BindAddress       string   `toml:"bind_address"`
	TickRate          Duration `toml:"tick_rate"`
	BroadcastInterval Duration `toml:"broadcast_interval"` // snapshot cadence, independent of tick_rate
	InactivityTimeout Duration `toml:"inactivity_timeout"`
	InQueueSize       int      `toml:"in_queue_size"`
	OutQueueSize      int      `toml:"out_queue_size"`
	MaxPacketsPerTick int      `toml:"max_packets_per_tick"`
	WriteTimeout      Duration `toml:"write_timeout"`
}

type ClientConfig struct {
	ServerAddress  string   `toml:"server_address"`
	TickRate       Duration `toml:"tick_rate"`
	SubmitInterval Duration `toml:"submit_interval"` // movement upload cadence
	DialTimeout    Duration `toml:"dial_timeout"`
	LeaveTimeout   Duration `toml:"leave_timeout"`
	InQueueSize    int      `toml:"in_queue_size"`
	OutQueueSize   int      `toml:"out_queue_size"`
	SpriteTable    string   `toml:"sprite_table"`
	LevelLength    float64  `toml:"level_length"` // distance to the finish line
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type RateLimitConfig struct {
	Enabled          bool `toml:"enabled"`
	PacketsPerSecond int  `toml:"packets_per_second"`
	Burst            int  `toml:"burst"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every non-positive interval or size.
func (c *Config) Validate() error {
	el := errors.NewErrorList()

	el.Add(c.Server.Validate())
	el.Add(c.Client.Validate())
	el.Add(c.RateLimit.Validate())

	return el.Err()
}

func (c *ServerConfig) Validate() error {
	el := errors.NewErrorList()

	if c.BindAddress == "" {
		el.Add(fmt.Errorf("server.bind_address is required"))
	}
	el.Add(positiveDuration("server.tick_rate", c.TickRate))
	el.Add(positiveDuration("server.broadcast_interval", c.BroadcastInterval))
	el.Add(positiveDuration("server.inactivity_timeout", c.InactivityTimeout))
	el.Add(positiveDuration("server.write_timeout", c.WriteTimeout))
	el.Add(positiveInt("server.in_queue_size", c.InQueueSize))
	el.Add(positiveInt("server.out_queue_size", c.OutQueueSize))
	el.Add(positiveInt("server.max_packets_per_tick", c.MaxPacketsPerTick))

	return el.Err()
}

func (c *ClientConfig) Validate() error {
	el := errors.NewErrorList()

	if c.ServerAddress == "" {
		el.Add(fmt.Errorf("client.server_address is required"))
	}
	el.Add(positiveDuration("client.tick_rate", c.TickRate))
	el.Add(positiveDuration("client.submit_interval", c.SubmitInterval))
	el.Add(positiveDuration("client.dial_timeout", c.DialTimeout))
	el.Add(positiveDuration("client.leave_timeout", c.LeaveTimeout))
	el.Add(positiveInt("client.in_queue_size", c.InQueueSize))
	el.Add(positiveInt("client.out_queue_size", c.OutQueueSize))
	if c.LevelLength <= 0 {
		el.Add(fmt.Errorf("client.level_length must be positive"))
	}

	return el.Err()
}

func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	el := errors.NewErrorList()

	el.Add(positiveInt("rate_limit.packets_per_second", c.PacketsPerSecond))
	el.Add(positiveInt("rate_limit.burst", c.Burst))

	return el.Err()
}

// Limit returns the per-connection inbound limit, 0 when disabled.
func (c *RateLimitConfig) Limit() (perSecond, burst int) {
	if !c.Enabled {
		return 0, 0
	}
	return c.PacketsPerSecond, c.Burst
}

func positiveDuration(name string, d Duration) error {
	if d.Duration <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

func positiveInt(name string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress:       "0.0.0.0:6000",
			TickRate:          Duration{16 * time.Millisecond},
			BroadcastInterval: Duration{time.Second},
			InactivityTimeout: Duration{10 * time.Second},
			InQueueSize:       128,
			OutQueueSize:      256,
			MaxPacketsPerTick: 32,
			WriteTimeout:      Duration{10 * time.Second},
		},
		Client: ClientConfig{
			ServerAddress:  "127.0.0.1:6000",
			TickRate:       Duration{16 * time.Millisecond},
			SubmitInterval: Duration{20 * time.Millisecond},
			DialTimeout:    Duration{5 * time.Second},
			LeaveTimeout:   Duration{time.Second},
			InQueueSize:    128,
			OutQueueSize:   256,
			SpriteTable:    "data/yaml/ghost_sprites.yaml",
			LevelLength:    2400,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			PacketsPerSecond: 120,
			Burst:            240,
		},
	}
}
