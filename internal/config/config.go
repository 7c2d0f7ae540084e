// Package config loads the game server's runtime configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TransportCipher holds the fixed parameters for the §6.3 LoginAuth
// payload transport cipher.
type TransportCipher struct {
	IP   string `yaml:"ip"`
	Key  string `yaml:"key"`
	Salt string `yaml:"salt"`
}

// Config holds all recognized runtime configuration fields for the
// game server core.
type Config struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	MaxClients int `yaml:"max_clients"`

	TickHz int `yaml:"tick_hz"`

	HandshakeTimeout time.Duration `yaml:"handshake_timeout_ms"`
	IdleTimeout      time.Duration `yaml:"idle_timeout_ms"`

	OutboundMailbox  int `yaml:"outbound_mailbox"`
	InboundHighWater int `yaml:"inbound_highwater"`
	InboundLowWater  int `yaml:"inbound_lowwater"`

	TransportCipher TransportCipher `yaml:"transport_cipher"`
}

// Default returns a Config with the values named in the specification.
func Default() Config {
	return Config{
		BindAddress:      "0.0.0.0",
		Port:             10033,
		MaxClients:       1000,
		TickHz:           100,
		HandshakeTimeout: 10000 * time.Millisecond,
		IdleTimeout:      120000 * time.Millisecond,
		OutboundMailbox:  256,
		InboundHighWater: 10000,
		InboundLowWater:  2000,
		TransportCipher: TransportCipher{
			IP:   "127.0.0.1",
			Key:  "0x00000000",
			Salt: "0x00000000",
		},
	}
}

// Load reads a YAML config file at path, overlaying it onto the
// default configuration. A missing file is not an error: defaults
// are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	// yaml.v3 decodes time.Duration only from duration strings such as
	// "10s"; the *_ms fields hold integer milliseconds, so they are read
	// through an intermediate struct and converted afterwards.
	var raw struct {
		BindAddress      string          `yaml:"bind_address"`
		Port             int             `yaml:"port"`
		MaxClients       int             `yaml:"max_clients"`
		TickHz           int             `yaml:"tick_hz"`
		HandshakeMs      int64           `yaml:"handshake_timeout_ms"`
		IdleMs           int64           `yaml:"idle_timeout_ms"`
		OutboundMailbox  int             `yaml:"outbound_mailbox"`
		InboundHighWater int             `yaml:"inbound_highwater"`
		InboundLowWater  int             `yaml:"inbound_lowwater"`
		TransportCipher  TransportCipher `yaml:"transport_cipher"`
	}
	raw.BindAddress = cfg.BindAddress
	raw.Port = cfg.Port
	raw.MaxClients = cfg.MaxClients
	raw.TickHz = cfg.TickHz
	raw.HandshakeMs = cfg.HandshakeTimeout.Milliseconds()
	raw.IdleMs = cfg.IdleTimeout.Milliseconds()
	raw.OutboundMailbox = cfg.OutboundMailbox
	raw.InboundHighWater = cfg.InboundHighWater
	raw.InboundLowWater = cfg.InboundLowWater
	raw.TransportCipher = cfg.TransportCipher

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.BindAddress = raw.BindAddress
	cfg.Port = raw.Port
	cfg.MaxClients = raw.MaxClients
	cfg.TickHz = raw.TickHz
	cfg.HandshakeTimeout = time.Duration(raw.HandshakeMs) * time.Millisecond
	cfg.IdleTimeout = time.Duration(raw.IdleMs) * time.Millisecond
	cfg.OutboundMailbox = raw.OutboundMailbox
	cfg.InboundHighWater = raw.InboundHighWater
	cfg.InboundLowWater = raw.InboundLowWater
	cfg.TransportCipher = raw.TransportCipher

	return cfg, nil
}
