package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/cardroom/blackjack/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Rules  RulesConfig    `hcl:"rules,block"`
	Redis  *RedisConfig   `hcl:"redis,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// RulesConfig tunes the table rules applied to every room.
type RulesConfig struct {
	MinPlayers      int `hcl:"min_players,optional"`
	MaxPlayers      int `hcl:"max_players,optional"`
	StartingBalance int `hcl:"starting_balance,optional"`
	TurnTimeoutSecs int `hcl:"turn_timeout_seconds,optional"`
	DealDelayMs     int `hcl:"deal_delay_ms,optional"`
	DealerDelayMs   int `hcl:"dealer_delay_ms,optional"`
}

// RedisConfig points the ledger at a Redis instance. Absent, balances
// live in memory and vanish on restart.
type RedisConfig struct {
	Addr     string `hcl:"addr"`
	Password string `hcl:"password,optional"`
	DB       int    `hcl:"db,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	defaults := game.DefaultConfig()
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "blackjack-server.log",
		},
		Rules: RulesConfig{
			MinPlayers:      defaults.MinPlayers,
			MaxPlayers:      defaults.MaxPlayers,
			StartingBalance: defaults.StartingBalance,
			TurnTimeoutSecs: int(defaults.TurnTimeout / time.Second),
			DealDelayMs:     int(defaults.DealDelay / time.Millisecond),
			DealerDelayMs:   int(defaults.DealerDelay / time.Millisecond),
		},
	}
}

// LoadServerConfig loads server configuration from HCL file
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultServerConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.LogFile == "" {
		config.Server.LogFile = defaults.Server.LogFile
	}
	if config.Rules.MinPlayers == 0 {
		config.Rules.MinPlayers = defaults.Rules.MinPlayers
	}
	if config.Rules.MaxPlayers == 0 {
		config.Rules.MaxPlayers = defaults.Rules.MaxPlayers
	}
	if config.Rules.StartingBalance == 0 {
		config.Rules.StartingBalance = defaults.Rules.StartingBalance
	}
	if config.Rules.TurnTimeoutSecs == 0 {
		config.Rules.TurnTimeoutSecs = defaults.Rules.TurnTimeoutSecs
	}
	if config.Rules.DealDelayMs == 0 {
		config.Rules.DealDelayMs = defaults.Rules.DealDelayMs
	}
	if config.Rules.DealerDelayMs == 0 {
		config.Rules.DealerDelayMs = defaults.Rules.DealerDelayMs
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Rules.MinPlayers < 1 {
		return fmt.Errorf("min players must be at least 1, got %d", c.Rules.MinPlayers)
	}
	if c.Rules.MaxPlayers < c.Rules.MinPlayers {
		return fmt.Errorf("max players (%d) must be at least min players (%d)", c.Rules.MaxPlayers, c.Rules.MinPlayers)
	}
	if c.Rules.MaxPlayers > 7 {
		// A single 52-card deck cannot safely serve more seats in one
		// round once splits and double downs come into play.
		return fmt.Errorf("max players must be at most 7, got %d", c.Rules.MaxPlayers)
	}
	if c.Rules.StartingBalance <= 0 {
		return fmt.Errorf("starting balance must be positive, got %d", c.Rules.StartingBalance)
	}
	if c.Rules.TurnTimeoutSecs <= 0 {
		return fmt.Errorf("turn timeout must be positive, got %d", c.Rules.TurnTimeoutSecs)
	}
	if c.Redis != nil && c.Redis.Addr == "" {
		return fmt.Errorf("redis block requires an addr")
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GameConfig converts the rules block into engine configuration.
func (c *ServerConfig) GameConfig() game.Config {
	return game.Config{
		MinPlayers:      c.Rules.MinPlayers,
		MaxPlayers:      c.Rules.MaxPlayers,
		StartingBalance: c.Rules.StartingBalance,
		TurnTimeout:     time.Duration(c.Rules.TurnTimeoutSecs) * time.Second,
		DealDelay:       time.Duration(c.Rules.DealDelayMs) * time.Millisecond,
		DealerDelay:     time.Duration(c.Rules.DealerDelayMs) * time.Millisecond,
	}
}
