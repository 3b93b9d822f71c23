package main

import (
	"crypto/ed25519"
	"os"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/code-payments/burn-hook/pkg/burnhook"
	"github.com/code-payments/burn-hook/pkg/solana/token"
)

const (
	storeMemory = "memory"
	storeBadger = "badger"
)

// cliConfig mirrors the program's environment configuration so a single
// config file drives every command.
type cliConfig struct {
	LogLevel string `mapstructure:"log_level"`

	ProgramID                string `mapstructure:"program_id"`
	TokenProgramID           string `mapstructure:"token_program_id"`
	AssociatedTokenProgramID string `mapstructure:"associated_token_program_id"`

	FeeNumerator                uint64 `mapstructure:"fee_numerator"`
	FeeDenominator              uint64 `mapstructure:"fee_denominator"`
	ExtraAccountMetasSizeMargin uint64 `mapstructure:"extra_account_metas_size_margin"`

	// Store selects the simulator's account store: memory or badger. An empty
	// StorePath with the badger store keeps the database in memory.
	Store     string `mapstructure:"store"`
	StorePath string `mapstructure:"store_path"`
}

var (
	defaultTokenProgramID           = token.Program2022Key
	defaultAssociatedTokenProgramID = token.AssociatedTokenAccountProgramKey
)

var defaultConfig = cliConfig{
	LogLevel: "info",

	FeeNumerator:                1,
	FeeDenominator:              10_000,
	ExtraAccountMetasSizeMargin: 100,

	Store: storeMemory,
}

func loadConfig(path string) (*cliConfig, error) {
	v := viper.New()

	_ = v.BindEnv("log_level", "LOG_LEVEL")

	_ = v.BindEnv("program_id", burnhook.ProgramIDConfigEnvName)
	_ = v.BindEnv("token_program_id", burnhook.TokenProgramIDConfigEnvName)
	_ = v.BindEnv("associated_token_program_id", burnhook.AssociatedTokenProgramIDConfigEnvName)

	_ = v.BindEnv("fee_numerator", burnhook.FeeNumeratorConfigEnvName)
	_ = v.BindEnv("fee_denominator", burnhook.FeeDenominatorConfigEnvName)
	_ = v.BindEnv("extra_account_metas_size_margin", burnhook.ExtraAccountMetasSizeMarginConfigEnvName)

	_ = v.BindEnv("store", "BURN_HOOK_STORE")
	_ = v.BindEnv("store_path", "BURN_HOOK_STORE_PATH")

	// viper only reports ConfigFileNotFoundError while searching for a default
	// file, so a missing explicit file is detected here instead.
	if len(path) > 0 {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)

			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrap(err, "failed to load config")
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to check if config exists")
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	switch config.Store {
	case storeMemory, storeBadger:
	default:
		return nil, errors.Errorf("unsupported store: %s", config.Store)
	}

	return &config, nil
}

// overrides converts the config into static program configuration
func (c *cliConfig) overrides() (*burnhook.Overrides, error) {
	programID, err := decodeOptionalKey("program_id", c.ProgramID)
	if err != nil {
		return nil, err
	}
	tokenProgramID, err := decodeOptionalKey("token_program_id", c.TokenProgramID)
	if err != nil {
		return nil, err
	}
	associatedTokenProgramID, err := decodeOptionalKey("associated_token_program_id", c.AssociatedTokenProgramID)
	if err != nil {
		return nil, err
	}

	feeNumerator := c.FeeNumerator
	feeDenominator := c.FeeDenominator
	margin := c.ExtraAccountMetasSizeMargin

	return &burnhook.Overrides{
		ProgramID:                   programID,
		TokenProgramID:              tokenProgramID,
		AssociatedTokenProgramID:    associatedTokenProgramID,
		FeeNumerator:                &feeNumerator,
		FeeDenominator:              &feeDenominator,
		ExtraAccountMetasSizeMargin: &margin,
	}, nil
}

func decodeOptionalKey(name, value string) (ed25519.PublicKey, error) {
	if len(value) == 0 {
		return nil, nil
	}
	return decodeKey(name, value)
}

func decodeKey(name, value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid %s: %d byte key", name, len(decoded))
	}
	return ed25519.PublicKey(decoded), nil
}
