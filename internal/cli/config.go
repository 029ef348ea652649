package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/vision-dao/beacon-deploy/internal/config"
)

// projectConfigFiles is the search order for project config files
var projectConfigFiles = []string{"beacon.toml"}

// ProjectConfig is the project-level TOML configuration. Flags override
// these values; these values override environment defaults.
type ProjectConfig struct {
	EthRPC        string  `toml:"eth_rpc,omitempty"`
	ChainID       uint64  `toml:"chain_id,omitempty"`
	ContractsDir  string  `toml:"contracts_dir,omitempty"`
	IPFSAPI       string  `toml:"ipfs_api,omitempty"`
	Confirmations *uint64 `toml:"confirmations,omitempty"`
	RPCRateLimit  float64 `toml:"rpc_rate_limit,omitempty"`
}

// loadProjectConfig reads the project config from --config or the search
// path. A missing file is only an error when it was named explicitly.
func loadProjectConfig() (*ProjectConfig, error) {
	if cfgFile != "" {
		return readProjectConfig(cfgFile)
	}

	for _, name := range projectConfigFiles {
		if _, err := os.Stat(name); err == nil {
			return readProjectConfig(name)
		}
	}
	return nil, nil
}

func readProjectConfig(path string) (*ProjectConfig, error) {
	var pc ProjectConfig
	if _, err := toml.DecodeFile(path, &pc); err != nil {
		return nil, fmt.Errorf("load project config %s: %w", path, err)
	}
	return &pc, nil
}

// settings is the fully resolved configuration one command run uses.
type settings struct {
	ethRPC        string
	chainID       uint64
	contractsDir  string
	ipfsAPI       string
	confirmations uint64
	rpcRateLimit  float64
}

// resolveSettings merges flag values over the project file over env
// defaults. Flag values arrive as the zero value when unset.
func resolveSettings(ethRPC, contractsDir, ipfsAPI string, chainID uint64, confirmations int64) (*settings, error) {
	env := config.Load()
	s := &settings{
		ethRPC:        env.Chain.RPCURL,
		chainID:       env.Chain.ChainID,
		contractsDir:  env.Chain.ContractsDir,
		ipfsAPI:       env.Store.APIURL,
		confirmations: env.Chain.Confirmations,
		rpcRateLimit:  env.Chain.RPCRateLimit,
	}

	pc, err := loadProjectConfig()
	if err != nil {
		return nil, err
	}
	if pc != nil {
		if pc.EthRPC != "" {
			s.ethRPC = pc.EthRPC
		}
		if pc.ChainID != 0 {
			s.chainID = pc.ChainID
		}
		if pc.ContractsDir != "" {
			s.contractsDir = pc.ContractsDir
		}
		if pc.IPFSAPI != "" {
			s.ipfsAPI = pc.IPFSAPI
		}
		if pc.Confirmations != nil {
			s.confirmations = *pc.Confirmations
		}
		if pc.RPCRateLimit != 0 {
			s.rpcRateLimit = pc.RPCRateLimit
		}
	}

	if ethRPC != "" {
		s.ethRPC = ethRPC
	}
	if chainID != 0 {
		s.chainID = chainID
	}
	if contractsDir != "" {
		s.contractsDir = contractsDir
	}
	if ipfsAPI != "" {
		s.ipfsAPI = ipfsAPI
	}
	if confirmations >= 0 {
		s.confirmations = uint64(confirmations)
	}

	if s.ethRPC == "" {
		return nil, fmt.Errorf("no EVM RPC endpoint configured (--eth-rpc, BEACON_ETH_RPC, or eth_rpc in beacon.toml)")
	}
	if s.contractsDir == "" {
		return nil, fmt.Errorf("no contracts directory configured (--contracts, BEACON_CONTRACTS_DIR, or contracts_dir in beacon.toml)")
	}

	return s, nil
}
