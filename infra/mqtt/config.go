package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kilianp07/meshcast/core/model"
)

// ModeMQTT is the only supported device mode: a MeshCore companion radio
// reached through an MQTT bridge.
const ModeMQTT = "mqtt"

// Config defines how to reach the device bridge.
type Config struct {
	Mode     string `json:"mode"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	// TopicPrefix roots the bridge topics: <prefix>/command and
	// <prefix>/response.
	TopicPrefix    string      `json:"topic_prefix"`
	QoS            byte        `json:"qos"`
	TimeoutSeconds float64     `json:"timeout_seconds"`
	SettleMS       int         `json:"settle_ms"`
	Slots          int         `json:"slots"`
	UseTLS         bool        `json:"use_tls"`
	ClientCert     string      `json:"client_cert"`
	ClientKey      string      `json:"client_key"`
	CABundle       string      `json:"ca_bundle"`
	TLSConfig      *tls.Config `json:"-"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = ModeMQTT
	}
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.TopicPrefix == "" {
		c.TopicPrefix = "meshcore"
	}
	c.TopicPrefix = strings.TrimRight(c.TopicPrefix, "/")
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	if c.SettleMS == 0 {
		c.SettleMS = 2000
	}
	if c.Slots <= 0 {
		c.Slots = model.MaxChannelSlots
	}
}

// Validate checks the device settings.
func (c Config) Validate() error {
	if c.Mode != ModeMQTT {
		return fmt.Errorf("unsupported device mode %q (only %q is available)", c.Mode, ModeMQTT)
	}
	if c.Broker == "" {
		return fmt.Errorf("device broker is required")
	}
	if c.Slots > model.MaxChannelSlots {
		return fmt.Errorf("device slots %d exceeds %d", c.Slots, model.MaxChannelSlots)
	}
	return nil
}

// Timeout is the bound applied to every device call.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// Settle is how long to wait after connecting before the first command. A
// negative settle_ms disables the wait.
func (c Config) Settle() time.Duration {
	if c.SettleMS <= 0 {
		return 0
	}
	return time.Duration(c.SettleMS) * time.Millisecond
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires ca_bundle")
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("ca bundle %s holds no certificates", c.CABundle)
	}
	cfg := &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	if c.ClientCert != "" || c.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load cert: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
