package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/burn-hook/pkg/burnhook"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig, *config)
}

func TestLoadConfig_File(t *testing.T) {
	program := generateKeys(t, 1)[0]

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "log_level: debug\n" +
		"program_id: " + base58.Encode(program) + "\n" +
		"fee_numerator: 5\n" +
		"fee_denominator: 100\n" +
		"store: badger\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, base58.Encode(program), config.ProgramID)
	assert.EqualValues(t, 5, config.FeeNumerator)
	assert.EqualValues(t, 100, config.FeeDenominator)
	assert.EqualValues(t, 100, config.ExtraAccountMetasSizeMargin)
	assert.Equal(t, storeBadger, config.Store)
}

func TestLoadConfig_Env(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fee_numerator: 5\n"), 0o600))

	t.Setenv(burnhook.FeeNumeratorConfigEnvName, "7")
	t.Setenv("LOG_LEVEL", "warn")

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.EqualValues(t, 7, config.FeeNumerator)
	assert.Equal(t, "warn", config.LogLevel)
}

func TestLoadConfig_InvalidStore(t *testing.T) {
	t.Setenv("BURN_HOOK_STORE", "postgres")

	_, err := loadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store")
}

func TestOverrides(t *testing.T) {
	keys := generateKeys(t, 2)

	config := defaultConfig
	config.ProgramID = base58.Encode(keys[0])
	config.TokenProgramID = base58.Encode(keys[1])

	overrides, err := config.overrides()
	require.NoError(t, err)
	assert.Equal(t, keys[0], overrides.ProgramID)
	assert.Equal(t, keys[1], overrides.TokenProgramID)
	assert.Nil(t, overrides.AssociatedTokenProgramID)
	assert.EqualValues(t, 1, *overrides.FeeNumerator)
	assert.EqualValues(t, 10_000, *overrides.FeeDenominator)
	assert.EqualValues(t, 100, *overrides.ExtraAccountMetasSizeMargin)

	config.ProgramID = "0OIl"
	_, err = config.overrides()
	assert.Error(t, err)

	config.ProgramID = base58.Encode([]byte{1, 2, 3})
	_, err = config.overrides()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 byte key")
}
