// Package config loads operational defaults from environment variables.
// Command-line flags and the project file override these; see internal/cli.
package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the tool
type Config struct {
	Chain   ChainConfig
	Store   StoreConfig
	Logging LoggingConfig
}

// ChainConfig holds EVM endpoint and deployment settings
type ChainConfig struct {
	RPCURL        string
	ChainID       uint64 // 0 means unpinned (pre-EIP-155 signing)
	ContractsDir  string
	Confirmations uint64
	RPCRateLimit  float64 // requests per second, 0 disables throttling
}

// StoreConfig holds content-store settings
type StoreConfig struct {
	// APIURL is the IPFS HTTP API endpoint. When empty, the new command
	// spawns a local daemon and uses DefaultAPIURL.
	APIURL string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// DefaultAPIURL is the API address of a locally spawned IPFS daemon.
const DefaultAPIURL = "http://127.0.0.1:5001"

// PrivateKeyEnv names the environment variable holding the hex-encoded
// deployment key. The key is never accepted on the command line.
const PrivateKeyEnv = "BEACON_PRIVATE_KEY"

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Chain: ChainConfig{
			RPCURL:        getEnv("BEACON_ETH_RPC", ""),
			ChainID:       getEnvUint("BEACON_CHAIN_ID", 0),
			ContractsDir:  getEnv("BEACON_CONTRACTS_DIR", ""),
			Confirmations: getEnvUint("BEACON_CONFIRMATIONS", 2),
			RPCRateLimit:  getEnvFloat("BEACON_RPC_RATE_LIMIT", 0),
		},
		Store: StoreConfig{
			APIURL: getEnv("BEACON_IPFS_API", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("BEACON_LOG_LEVEL", "info"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}
