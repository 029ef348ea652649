package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/vision-dao/beacon-deploy/internal/artifact"
	"github.com/vision-dao/beacon-deploy/internal/chain"
)

func createListCmd() *cobra.Command {
	var ethRPC string
	var contractsDir string
	var matchPrefix bool
	var concurrency int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List previously deployed Beacon DAOs",
		Long: `List the addresses of Beacon DAO instances this key deployed.

No index is kept anywhere: the full block history is replayed, looking
for contract-creation transactions from this key whose input matches the
artifact's creation bytecode. Prints one address per line; no output
means no deployments were found.

By default the transaction input must equal the creation bytecode
byte-for-byte. Deployments made with constructor arguments carry the
encoded arguments after the bytecode, so use --match-prefix to find
those.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveSettings(ethRPC, contractsDir, "", 0, -1)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), s, matchPrefix, concurrency)
		},
	}

	cmd.Flags().StringVar(&ethRPC, "eth-rpc", "", "EVM JSON-RPC endpoint URL")
	cmd.Flags().StringVar(&contractsDir, "contracts", "", "directory containing the built Beacon DAO contracts")
	cmd.Flags().BoolVar(&matchPrefix, "match-prefix", false, "match creation inputs that start with the bytecode")
	cmd.Flags().IntVar(&concurrency, "receipt-concurrency", 0, "receipt fetches in flight per block (default 16)")

	return cmd
}

func runList(ctx context.Context, s *settings, matchPrefix bool, concurrency int) error {
	key, err := resolvePrivateKey()
	if err != nil {
		return err
	}
	sender := crypto.PubkeyToAddress(key.PublicKey)

	art, err := artifact.Load(s.contractsDir)
	if err != nil {
		return err
	}

	client, err := chain.Dial(ctx, s.ethRPC, chain.WithRateLimit(s.rpcRateLimit))
	if err != nil {
		return err
	}
	defer client.Close()

	opts := []chain.ScannerOption{
		chain.WithReceiptConcurrency(concurrency),
		chain.WithScanLogger(slog.Default()),
	}
	if matchPrefix {
		opts = append(opts, chain.WithPrefixMatch())
	}

	found, err := chain.NewScanner(client, opts...).Scan(ctx, sender, art.Bytecode)
	if err != nil {
		return err
	}

	for _, dep := range found {
		fmt.Println(dep.Address.Hex())
	}
	return nil
}
