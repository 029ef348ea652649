package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vision-dao/beacon-deploy/internal/artifact"
	"github.com/vision-dao/beacon-deploy/internal/chain"
	"github.com/vision-dao/beacon-deploy/internal/config"
	"github.com/vision-dao/beacon-deploy/internal/errs"
	"github.com/vision-dao/beacon-deploy/internal/metadata"
	"github.com/vision-dao/beacon-deploy/internal/store"
)

func createNewCmd() *cobra.Command {
	var ethRPC string
	var ipfsAPI string
	var contractsDir string
	var chainID uint64
	var confirmations int64
	var modulePairs []string
	var title string
	var description string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Deploy a new Beacon DAO",
		Long: `Deploy a new Beacon DAO instance.

Publishes the DAO's metadata (title, description, and module payloads) to
the content store, then deploys the Idea contract with the metadata root
CID as a constructor argument. Prints the deployed contract address on
success and nothing else.

Each --module takes a loader/wasm file pair. When no --ipfs-api is given,
a local "ipfs daemon" is spawned for the duration of the command.

EXAMPLES:
  # Deploy against a local dev chain with two modules
  BEACON_PRIVATE_KEY=... beacon-deploy new \
    --eth-rpc http://localhost:8545 \
    --contracts ./beacon-dao-contracts \
    --module dist/treasury.js,dist/treasury_bg.wasm \
    --module dist/voting.js,dist/voting_bg.wasm

  # Use a remote IPFS node and wait for 5 confirmations
  beacon-deploy new --eth-rpc https://rpc.example.org --chain-id 137 \
    --contracts ./contracts --ipfs-api http://ipfs.internal:5001 \
    --confirmations 5
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveSettings(ethRPC, contractsDir, ipfsAPI, chainID, confirmations)
			if err != nil {
				return err
			}

			modules, err := loadModules(modulePairs)
			if err != nil {
				return err
			}

			return runNew(cmd.Context(), s, modules, title, description)
		},
	}

	cmd.Flags().StringVar(&ethRPC, "eth-rpc", "", "EVM JSON-RPC endpoint URL")
	cmd.Flags().StringVar(&ipfsAPI, "ipfs-api", "", "IPFS HTTP API URL (default: spawn a local daemon)")
	cmd.Flags().StringVar(&contractsDir, "contracts", "", "directory containing the built Beacon DAO contracts")
	cmd.Flags().Uint64Var(&chainID, "chain-id", 0, "chain ID to sign for")
	cmd.Flags().Int64Var(&confirmations, "confirmations", -1, "blocks to wait on top of the deployment (default 2; 0 for dev chains)")
	cmd.Flags().StringArrayVar(&modulePairs, "module", nil, "module payload as <loader.js>,<module.wasm> (repeatable)")
	cmd.Flags().StringVar(&title, "title", chain.DefaultName, "DAO title stored in the metadata")
	cmd.Flags().StringVar(&description, "description", chain.DefaultDescription, "DAO description stored in the metadata")

	return cmd
}

func runNew(ctx context.Context, s *settings, modules []metadata.Module, title, description string) error {
	key, err := resolvePrivateKey()
	if err != nil {
		return err
	}

	art, err := artifact.Load(s.contractsDir)
	if err != nil {
		return err
	}

	logger := slog.Default()

	// Without a configured store endpoint, run our own daemon for the
	// lifetime of this command. Stop is deferred before anything can
	// fail, so the child never outlives the command.
	storeURL := s.ipfsAPI
	if storeURL == "" {
		daemon, err := startDaemon(ctx, logger)
		if err != nil {
			return err
		}
		defer daemon.Stop()
		storeURL = config.DefaultAPIURL
	}

	publisher := metadata.NewPublisher(store.New(storeURL), logger)
	root, err := publisher.Publish(ctx, title, description, modules)
	if err != nil {
		return err
	}

	logger.Debug("metadata published", "root", root)

	client, err := chain.Dial(ctx, s.ethRPC, chain.WithRateLimit(s.rpcRateLimit))
	if err != nil {
		return err
	}
	defer client.Close()

	opts := []chain.DeployerOption{
		chain.WithConfirmations(s.confirmations),
		chain.WithDeployLogger(logger),
	}
	if s.chainID != 0 {
		opts = append(opts, chain.WithChainID(s.chainID))
	}

	addr, err := chain.NewDeployer(client, key, opts...).Deploy(ctx, art, root)
	if err != nil {
		return err
	}

	fmt.Println(addr.Hex())
	return nil
}

// loadModules reads each <loader>,<wasm> pair into memory.
func loadModules(pairs []string) ([]metadata.Module, error) {
	modules := make([]metadata.Module, 0, len(pairs))
	for _, pair := range pairs {
		loaderPath, wasmPath, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, errs.Newf(errs.KindConfig, "--module expects <loader.js>,<module.wasm>, got %q", pair)
		}

		loader, err := os.ReadFile(loaderPath)
		if err != nil {
			return nil, errs.New(errs.KindConfig, "read module loader "+loaderPath, err)
		}
		wasm, err := os.ReadFile(wasmPath)
		if err != nil {
			return nil, errs.New(errs.KindConfig, "read module payload "+wasmPath, err)
		}

		name := strings.TrimSuffix(filepath.Base(wasmPath), filepath.Ext(wasmPath))
		modules = append(modules, metadata.Module{Name: name, Loader: loader, Wasm: wasm})
	}
	return modules, nil
}
