package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"homewatch/internal/rules"
	"homewatch/internal/sensor"
)

type Config struct {
	Device               string `yaml:"device"`
	PollIntervalSeconds  int    `yaml:"pollIntervalSeconds"`
	ChannelTimeoutMillis int    `yaml:"channelTimeoutMillis"`
	WindowSize           int    `yaml:"windowSize"`

	Admin    AdminConfig     `yaml:"admin"`
	Log      LogConfig       `yaml:"log"`
	Report   ReportConfig    `yaml:"report"`
	Commands CommandsConfig  `yaml:"commands"`
	Channels []ChannelConfig `yaml:"channels"`
	Rules    []rules.Rule    `yaml:"rules"`
}

type AdminConfig struct {
	Port      string `yaml:"port"`
	JWTSecret string `yaml:"jwtSecret"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
}

type ReportConfig struct {
	Sink          string       `yaml:"sink"`
	Attempts      int          `yaml:"attempts"`
	BackoffMillis int          `yaml:"backoffMillis"`
	TimeoutMillis int          `yaml:"timeoutMillis"`
	QueueSize     int          `yaml:"queueSize"`
	NATS          NATSConfig   `yaml:"nats"`
	HTTP          HTTPConfig   `yaml:"http"`
	Influx        InfluxConfig `yaml:"influx"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type HTTPConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
}

type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

type CommandsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	NATSURL    string `yaml:"natsUrl"`
	BuzzerPath string `yaml:"buzzerPath"`
	ServoPath  string `yaml:"servoPath"`
}

type ChannelConfig struct {
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
	Kind string `yaml:"kind"`

	// file
	Path  string  `yaml:"path"`
	Scale float64 `yaml:"scale"`

	// exec
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// sim
	Base          float64 `yaml:"base"`
	Amplitude     float64 `yaml:"amplitude"`
	PeriodSeconds int     `yaml:"periodSeconds"`
}

// Load parses and validates the agent configuration. A failure here is
// the only fatal startup error the agent has.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Device == "" {
		c.Device = "homewatch"
	}
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = 2
	}
	if c.ChannelTimeoutMillis <= 0 {
		c.ChannelTimeoutMillis = 500
	}
	if c.WindowSize <= 0 {
		c.WindowSize = 64
	}
	if c.Admin.Port == "" {
		c.Admin.Port = "8091"
	}
	if c.Report.Sink == "" {
		c.Report.Sink = "nats"
	}
	if c.Report.Attempts <= 0 {
		c.Report.Attempts = 5
	}
	if c.Report.BackoffMillis <= 0 {
		c.Report.BackoffMillis = 200
	}
	if c.Report.TimeoutMillis <= 0 {
		c.Report.TimeoutMillis = 5000
	}
	if c.Report.QueueSize <= 0 {
		c.Report.QueueSize = 16
	}
	if c.Report.NATS.URL == "" {
		c.Report.NATS.URL = "nats://localhost:4222"
	}
	if c.Report.NATS.Subject == "" {
		c.Report.NATS.Subject = "telemetry.batch"
	}
	if c.Report.Influx.Measurement == "" {
		c.Report.Influx.Measurement = "readings"
	}
	if c.Commands.NATSURL == "" {
		c.Commands.NATSURL = c.Report.NATS.URL
	}
}

func (c *Config) validate() error {
	if len(c.Channels) == 0 {
		return fmt.Errorf("config: at least one channel required")
	}
	names := map[string]bool{}
	for i, ch := range c.Channels {
		if ch.Name == "" {
			return fmt.Errorf("config: channels[%d]: name required", i)
		}
		if names[ch.Name] {
			return fmt.Errorf("config: duplicate channel %q", ch.Name)
		}
		names[ch.Name] = true
		switch ch.Kind {
		case "file":
			if ch.Path == "" {
				return fmt.Errorf("config: channel %q: path required for file sources", ch.Name)
			}
		case "exec":
			if ch.Command == "" {
				return fmt.Errorf("config: channel %q: command required for exec sources", ch.Name)
			}
		case "sim", "":
		default:
			return fmt.Errorf("config: channel %q: unsupported kind %q", ch.Name, ch.Kind)
		}
	}
	switch c.Report.Sink {
	case "nats":
	case "http":
		if c.Report.HTTP.Endpoint == "" {
			return fmt.Errorf("config: report.http.endpoint required for http sink")
		}
	case "influx":
		influx := c.Report.Influx
		if influx.URL == "" || influx.Org == "" || influx.Bucket == "" {
			return fmt.Errorf("config: report.influx url, org and bucket required for influx sink")
		}
	default:
		return fmt.Errorf("config: unsupported sink %q", c.Report.Sink)
	}
	if err := rules.ValidateSet(c.Rules, names); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// BuildChannels constructs the source driver for every configured
// channel.
func (c *Config) BuildChannels() ([]sensor.Channel, error) {
	channels := make([]sensor.Channel, 0, len(c.Channels))
	for _, ch := range c.Channels {
		var source sensor.Source
		switch strings.ToLower(ch.Kind) {
		case "file":
			source = sensor.FileSource{Path: ch.Path, Scale: ch.Scale}
		case "exec":
			source = sensor.ExecSource{Command: ch.Command, Args: ch.Args}
		case "sim", "":
			source = sensor.NewSimSource(ch.Base, ch.Amplitude, time.Duration(ch.PeriodSeconds)*time.Second)
		default:
			return nil, fmt.Errorf("unsupported channel kind %q", ch.Kind)
		}
		channels = append(channels, sensor.Channel{Name: ch.Name, Unit: ch.Unit, Source: source})
	}
	return channels, nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) ChannelTimeout() time.Duration {
	return time.Duration(c.ChannelTimeoutMillis) * time.Millisecond
}
