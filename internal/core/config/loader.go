package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vietddude/streampay/internal/core/domain"
	"github.com/vietddude/streampay/internal/infra/wallet"
	"gopkg.in/yaml.v2"
)

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{
		Wallet: wallet.Config{AutoConnect: true},
	}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := AppConfig{
		Wallet: wallet.Config{AutoConnect: true},
	}
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Contracts.Stream == "" {
		cfg.Contracts.Stream = domain.StreamContractAddress
	}
	if cfg.Contracts.Token == "" {
		cfg.Contracts.Token = domain.TokenContractAddress
	}
	if cfg.Streams.FetchConcurrency <= 0 {
		cfg.Streams.FetchConcurrency = 8
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *AppConfig) validate() error {
	if !common.IsHexAddress(c.Contracts.Stream) {
		return fmt.Errorf("invalid stream contract address %q", c.Contracts.Stream)
	}
	if !common.IsHexAddress(c.Contracts.Token) {
		return fmt.Errorf("invalid token contract address %q", c.Contracts.Token)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q (want text or json)", c.Logging.Format)
	}
	return nil
}
