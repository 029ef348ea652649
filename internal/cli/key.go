package cli

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/term"

	"github.com/vision-dao/beacon-deploy/internal/config"
	"github.com/vision-dao/beacon-deploy/internal/errs"
)

// resolvePrivateKey reads the deployment key from the environment, or
// prompts for it without echo when running interactively. Taking the key
// through argv would leak it into the process table, so there is no flag.
func resolvePrivateKey() (*ecdsa.PrivateKey, error) {
	raw := os.Getenv(config.PrivateKeyEnv)
	if raw == "" {
		var err error
		raw, err = promptPrivateKey()
		if err != nil {
			return nil, err
		}
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		return nil, errs.New(errs.KindEncoding, "parse deployment private key", err)
	}
	return key, nil
}

func promptPrivateKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errs.Newf(errs.KindConfig, "no %s environment variable provided and stdin is not a terminal", config.PrivateKeyEnv)
	}

	fmt.Fprint(os.Stderr, "Deployment private key (hex): ")
	entered, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errs.New(errs.KindConfig, "read private key from terminal", err)
	}
	if len(entered) == 0 {
		return "", errs.Newf(errs.KindConfig, "no private key entered")
	}
	return string(entered), nil
}
