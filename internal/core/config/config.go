package config

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/vietddude/streampay/internal/infra/wallet"
	"github.com/vietddude/streampay/internal/stream"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Wallet    wallet.Config   `yaml:"wallet"`
	Contracts ContractsConfig `yaml:"contracts"`
	Streams   stream.Config   `yaml:"streams"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text (default) or json
}

// ContractsConfig holds deployed contract addresses.
type ContractsConfig struct {
	Stream string `yaml:"stream"`
	Token  string `yaml:"token"`
}

// Addresses converts the configured hex addresses.
func (c ContractsConfig) Addresses() wallet.Contracts {
	return wallet.Contracts{
		Stream: common.HexToAddress(c.Stream),
		Token:  common.HexToAddress(c.Token),
	}
}
