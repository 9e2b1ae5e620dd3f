package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itgcl/multimatch/config"
)

func Test_Load_Returns_Defaults_When_Path_Is_Empty(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func Test_Load_Returns_Defaults_When_File_Missing(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.jsonc"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func Test_Load_Parses_JSON_With_Comments_And_Trailing_Commas(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `{
		// where the dictionary lives
		"dictionary_path": "dict.yaml",
		"ignore_case": true,
		"save_values": false, // trailing comma below is fine too
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dict.yaml", cfg.DictionaryPath)
	assert.True(t, cfg.IgnoreCase)
	assert.False(t, cfg.SaveValues)
}

func Test_Load_Rejects_Invalid_JSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}
