package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/meshcast/core/channel"
	"github.com/kilianp07/meshcast/core/metrics"
	"github.com/kilianp07/meshcast/core/model"
	"github.com/kilianp07/meshcast/core/notify"
	"github.com/kilianp07/meshcast/infra/mqtt"
)

// EnvPrefix marks environment overrides, e.g. MESHCORE_DEVICE__BROKER.
const EnvPrefix = "MESHCORE_"

type Config struct {
	Device      mqtt.Config       `json:"device"`
	Channels    []ChannelConfig   `json:"channels"`
	Broadcast   BroadcastConfig   `json:"broadcast"`
	Calendar    CalendarConfig    `json:"calendar"`
	Ledger      notify.Config     `json:"ledger"`
	DispatchLog DispatchLogConfig `json:"dispatch_log"`
	Log         LogConfig         `json:"log"`
	Metrics     metrics.Config    `json:"metrics"`
	Sentry      SentryConfig      `json:"sentry"`
	API         APIConfig         `json:"api"`
}

// APIConfig protects the HTTP endpoints served by the schedule command.
type APIConfig struct {
	// Token, when set, is required as a bearer token on API requests.
	Token string `json:"token"`
}

// ChannelConfig is one configured logical channel.
type ChannelConfig struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// Load reads the configuration file at path, applies MESHCORE_ environment
// overrides, fills defaults and validates the result. The parser is chosen by
// extension: .yaml/.yml, .json, anything else is read as a keys file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	// Optional environment overrides
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return Keys()
	}
}

// envKey maps MESHCORE_LEDGER__DRIVER to ledger.driver and legacy names such
// as MESHCORE_MODE to their nested paths.
func envKey(key, value string) (string, interface{}) {
	name := strings.TrimPrefix(key, EnvPrefix)
	path := configPath(strings.ReplaceAll(name, "__", "."))
	return path, keyValue(path, value)
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Device.SetDefaults()
	c.Broadcast.SetDefaults()
	c.Calendar.SetDefaults()
	c.Ledger.SetDefaults()
	c.DispatchLog.SetDefaults()
	c.Log.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Device.Validate(); err != nil {
		return err
	}
	reg, err := c.Registry()
	if err != nil {
		return err
	}
	if reg.Len() == 0 {
		return errors.New("no channels configured")
	}
	for _, check := range []func() error{
		c.Broadcast.Validate,
		c.Calendar.Validate,
		c.Ledger.Validate,
		c.DispatchLog.Validate,
		c.Log.Validate,
		c.Sentry.Validate,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	if c.Broadcast.DefaultChannel != "" {
		if _, ok := reg.Lookup(c.Broadcast.DefaultChannel); !ok {
			return fmt.Errorf("broadcast: default_channel %q is not configured", c.Broadcast.DefaultChannel)
		}
	}
	return nil
}

// LogicalChannels converts the channel section to model values.
func (c Config) LogicalChannels() []model.LogicalChannel {
	out := make([]model.LogicalChannel, len(c.Channels))
	for i, ch := range c.Channels {
		out[i] = model.LogicalChannel{Key: ch.Key, Name: ch.Name, Secret: ch.Secret}
	}
	return out
}

// Registry builds the channel registry.
func (c Config) Registry() (*channel.Registry, error) {
	reg, err := channel.NewRegistry(c.LogicalChannels())
	if err != nil {
		return nil, fmt.Errorf("channels: %w", err)
	}
	return reg, nil
}
