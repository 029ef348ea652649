// Package artifact loads the compiled Idea contract artifact that both the
// deployer and the provenance scanner depend on.
package artifact

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/vision-dao/beacon-deploy/internal/errs"
)

// ideaPath is the artifact location relative to the contracts directory,
// as emitted by the contract build (one directory per source file).
const ideaPath = "contracts/Idea.sol/Idea.json"

// Artifact is the deployable Idea contract: its creation bytecode and
// constructor ABI. Loaded once per invocation and treated as immutable.
type Artifact struct {
	// Bytecode is the decoded creation bytecode, 0x prefix stripped.
	Bytecode []byte
	// ABI is the parsed contract interface used to pack constructor args.
	ABI abi.ABI
	// RawABI is the ABI JSON exactly as found in the artifact.
	RawABI json.RawMessage
}

// rawArtifact matches the on-disk artifact JSON.
type rawArtifact struct {
	Bytecode string          `json:"bytecode"`
	ABI      json.RawMessage `json:"abi"`
}

// Load reads and validates <contractsDir>/contracts/Idea.sol/Idea.json.
//
// Bytecode without a 0x prefix, or with non-hex content, is rejected as
// invalid input before any network activity happens.
func Load(contractsDir string) (*Artifact, error) {
	path := filepath.Join(contractsDir, filepath.FromSlash(ideaPath))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.KindConfig, "read contract artifact "+path, err)
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.New(errs.KindSerialization, "parse contract artifact "+path, err)
	}

	if !strings.HasPrefix(raw.Bytecode, "0x") {
		return nil, errs.Newf(errs.KindInvalidInput, "artifact bytecode missing 0x prefix")
	}

	code, err := hexutil.Decode(raw.Bytecode)
	if err != nil {
		return nil, errs.New(errs.KindEncoding, "decode artifact bytecode", err)
	}
	if len(code) == 0 {
		return nil, errs.Newf(errs.KindInvalidInput, "artifact bytecode is empty")
	}

	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, errs.New(errs.KindSerialization, "parse contract ABI", err)
	}

	return &Artifact{
		Bytecode: code,
		ABI:      parsed,
		RawABI:   raw.ABI,
	}, nil
}
