package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-dao/beacon-deploy/internal/errs"
)

const testABI = `[{
	"type": "constructor",
	"inputs": [
		{"name": "name_", "type": "string"},
		{"name": "symbol_", "type": "string"},
		{"name": "supply_", "type": "uint256"},
		{"name": "metadata_", "type": "string"}
	]
}]`

// writeArtifact lays out <dir>/contracts/Idea.sol/Idea.json
func writeArtifact(t *testing.T, bytecode string) string {
	t.Helper()

	dir := t.TempDir()
	artDir := filepath.Join(dir, "contracts", "Idea.sol")
	require.NoError(t, os.MkdirAll(artDir, 0755))

	content := `{"bytecode": "` + bytecode + `", "abi": ` + testABI + `}`
	require.NoError(t, os.WriteFile(filepath.Join(artDir, "Idea.json"), []byte(content), 0644))

	return dir
}

func TestLoad(t *testing.T) {
	t.Run("valid artifact", func(t *testing.T) {
		dir := writeArtifact(t, "0xaabbcc")

		art, err := Load(dir)
		require.NoError(t, err)

		assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, art.Bytecode)
		assert.NotNil(t, art.ABI.Constructor.Inputs)
		assert.Len(t, art.ABI.Constructor.Inputs, 4)
	})

	t.Run("missing 0x prefix", func(t *testing.T) {
		dir := writeArtifact(t, "aabbcc")

		_, err := Load(dir)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindInvalidInput))
	})

	t.Run("invalid hex", func(t *testing.T) {
		dir := writeArtifact(t, "0xzzzz")

		_, err := Load(dir)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindEncoding))
	})

	t.Run("empty bytecode", func(t *testing.T) {
		dir := writeArtifact(t, "0x")

		_, err := Load(dir)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindInvalidInput))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindConfig))
	})

	t.Run("malformed JSON", func(t *testing.T) {
		dir := t.TempDir()
		artDir := filepath.Join(dir, "contracts", "Idea.sol")
		require.NoError(t, os.MkdirAll(artDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(artDir, "Idea.json"), []byte("{not json"), 0644))

		_, err := Load(dir)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindSerialization))
	})
}
