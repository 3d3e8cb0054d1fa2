// Package config handles configuration loading, saving, and schema definition.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the top-level simplexbot configuration.
// Uses json tags in camelCase to match the JSON config file format;
// the mapstructure tags let viper decode the same keys.
type Config struct {
	Client  ClientConfig  `json:"client" mapstructure:"client"`
	Bot     BotConfig     `json:"bot" mapstructure:"bot"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

// ClientConfig holds the chat daemon connection settings.
type ClientConfig struct {
	URL            string `json:"url" mapstructure:"url"`
	TimeoutMs      int    `json:"timeoutMs" mapstructure:"timeoutMs"`
	EventQueueSize int    `json:"eventQueueSize" mapstructure:"eventQueueSize"`
}

// Timeout returns the per-command response timeout.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// BotConfig holds the command dispatcher settings.
type BotConfig struct {
	Prefix         string         `json:"prefix" mapstructure:"prefix"`
	MaxBacklogSecs float64        `json:"maxBacklogSecs" mapstructure:"maxBacklogSecs"`
	Reaction       string         `json:"reaction" mapstructure:"reaction"`
	CommandsFile   string         `json:"commandsFile,omitempty" mapstructure:"commandsFile"`
	ShowcaseImage  string         `json:"showcaseImage,omitempty" mapstructure:"showcaseImage"`
	AutoAccept     bool           `json:"autoAccept,omitempty" mapstructure:"autoAccept"`
	Network        *NetworkConfig `json:"network,omitempty" mapstructure:"network"`
}

// MaxBacklog returns the age after which inbound chat items are skipped.
func (b BotConfig) MaxBacklog() time.Duration {
	return time.Duration(b.MaxBacklogSecs * float64(time.Second))
}

// NetworkConfig is applied to the daemon at startup. Empty fields are left unchanged.
type NetworkConfig struct {
	Socks            string `json:"socks,omitempty" mapstructure:"socks"`
	SocksMode        string `json:"socksMode,omitempty" mapstructure:"socksMode"`
	SMPProxy         string `json:"smpProxy,omitempty" mapstructure:"smpProxy"`
	SMPProxyFallback string `json:"smpProxyFallback,omitempty" mapstructure:"smpProxyFallback"`
	Timeout          string `json:"timeout,omitempty" mapstructure:"timeout"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`   // debug|info|warn|error
	Format    string `json:"format" mapstructure:"format"` // text|json
	AddSource bool   `json:"addSource,omitempty" mapstructure:"addSource"`
}

// MetricsConfig holds the prometheus endpoint settings. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `json:"addr,omitempty" mapstructure:"addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Client: ClientConfig{
			URL:            "ws://localhost:5225",
			TimeoutMs:      10000,
			EventQueueSize: 4096,
		},
		Bot: BotConfig{
			Prefix:         "!",
			MaxBacklogSecs: 5,
			Reaction:       "🚀",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Client.URL == "":
		return fmt.Errorf("client.url is required")
	case !strings.HasPrefix(c.Client.URL, "ws://") && !strings.HasPrefix(c.Client.URL, "wss://"):
		return fmt.Errorf("client.url must be a ws:// or wss:// address, got %q", c.Client.URL)
	case c.Client.TimeoutMs <= 0:
		return fmt.Errorf("client.timeoutMs must be positive")
	case c.Client.EventQueueSize <= 0:
		return fmt.Errorf("client.eventQueueSize must be positive")
	case c.Bot.Prefix == "" || strings.ContainsAny(c.Bot.Prefix, " \t\n"):
		return fmt.Errorf("bot.prefix must be non-empty and contain no whitespace")
	case c.Bot.MaxBacklogSecs < 0:
		return fmt.Errorf("bot.maxBacklogSecs must not be negative")
	}
	return nil
}
