// Package config loads server/session configuration from a TOML file,
// with a hardcoded set of defaults for anything the file omits.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds session and server configuration, including fields for the
// connection-layer timers. Of those, only KeepAliveTimeoutMS reaches the
// connections (through runtime.Options); HeartbeatIntervalMS sets
// cmd/netrund's tick cadence, and the connection and channel layers use
// the pkg/wire constants for the heartbeat and resend intervals.
type Config struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	MaxPlayers int    `toml:"max_players"`
	ServerName string `toml:"server_name"`
	GameMode   string `toml:"game_mode"`
	Language   string `toml:"language"`
	Weather    int    `toml:"weather"`
	WorldTime  int    `toml:"world_time"`
	MapName    string `toml:"map_name"`
	WebURL     string `toml:"web_url"`

	HeartbeatIntervalMS          int `toml:"heartbeat_interval_ms"`
	KeepAliveTimeoutMS           int `toml:"keep_alive_timeout_ms"`
	ResendIntervalMS             int `toml:"resend_interval_ms"`
	HighPriorityResendIntervalMS int `toml:"high_priority_resend_interval_ms"`

	// PingEnabled turns on the optional RTT probe. Off by default: it
	// never gates liveness, only diagnostics.
	PingEnabled bool `toml:"ping_enabled"`
}

// Default returns the built-in hardcoded values.
func Default() Config {
	return Config{
		Host:       "0.0.0.0",
		Port:       7777,
		MaxPlayers: 100,
		ServerName: "RakNet Server [GO]",
		GameMode:   "Freeroam v1.0",
		Language:   "English",
		Weather:    10,
		WorldTime:  12,
		MapName:    "San Andreas",
		WebURL:     "github.com/netrun-go/netrun",

		HeartbeatIntervalMS:          100,
		KeepAliveTimeoutMS:           2000,
		ResendIntervalMS:             200,
		HighPriorityResendIntervalMS: 10,
		PingEnabled:                  false,
	}
}

// Load reads a TOML config from path, overlaying it on Default(). An
// empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HeartbeatInterval returns the configured heartbeat interval as a
// time.Duration.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMS) * time.Millisecond
}

// KeepAliveTimeout returns the configured keep-alive timeout as a
// time.Duration.
func (c Config) KeepAliveTimeout() time.Duration {
	return time.Duration(c.KeepAliveTimeoutMS) * time.Millisecond
}

// ResendInterval returns the configured reliable-channel resend interval.
func (c Config) ResendInterval() time.Duration {
	return time.Duration(c.ResendIntervalMS) * time.Millisecond
}

// HighPriorityResendInterval returns the configured high-priority resend
// interval.
func (c Config) HighPriorityResendInterval() time.Duration {
	return time.Duration(c.HighPriorityResendIntervalMS) * time.Millisecond
}
