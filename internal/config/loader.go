package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SIMPLEXBOT_CLIENT_URL.
const EnvPrefix = "SIMPLEXBOT"

// GetConfigPath returns the default config file path (~/.simplexbot/config.json).
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".simplexbot", "config.json")
}

// Loader layers defaults, a config file, environment variables and bound
// flags, in increasing order of precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment overrides set up.
func NewLoader() *Loader {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("client.url", d.Client.URL)
	v.SetDefault("client.timeoutMs", d.Client.TimeoutMs)
	v.SetDefault("client.eventQueueSize", d.Client.EventQueueSize)
	v.SetDefault("bot.prefix", d.Bot.Prefix)
	v.SetDefault("bot.maxBacklogSecs", d.Bot.MaxBacklogSecs)
	v.SetDefault("bot.reaction", d.Bot.Reaction)
	v.SetDefault("bot.commandsFile", d.Bot.CommandsFile)
	v.SetDefault("bot.showcaseImage", d.Bot.ShowcaseImage)
	v.SetDefault("bot.autoAccept", d.Bot.AutoAccept)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.addSource", d.Logging.AddSource)
	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag lets a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, f *pflag.Flag) error {
	if f == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, f)
}

// Load reads configuration from a JSON or YAML file, chosen by extension.
// If path is empty, uses the default config path.
// If the file doesn't exist, only defaults, environment and flags apply.
func (l *Loader) Load(path string) (Config, error) {
	if path == "" {
		path = GetConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return DefaultConfig(), fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return DefaultConfig(), fmt.Errorf("stat config %s: %w", path, err)
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads configuration with defaults and environment overrides.
func Load(path string) (Config, error) {
	return NewLoader().Load(path)
}

// Save writes configuration to a JSON file.
// If path is empty, uses the default config path.
func Save(cfg Config, path string) error {
	if path == "" {
		path = GetConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
