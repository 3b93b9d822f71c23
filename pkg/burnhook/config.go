package burnhook

import (
	"crypto/ed25519"

	"github.com/code-payments/burn-hook/pkg/config"
	"github.com/code-payments/burn-hook/pkg/config/env"
	"github.com/code-payments/burn-hook/pkg/config/memory"
	"github.com/code-payments/burn-hook/pkg/solana/token"
)

const (
	envConfigPrefix = "BURN_HOOK_"

	ProgramIDConfigEnvName = envConfigPrefix + "PROGRAM_ID"

	TokenProgramIDConfigEnvName = envConfigPrefix + "TOKEN_PROGRAM_ID"

	AssociatedTokenProgramIDConfigEnvName = envConfigPrefix + "ASSOCIATED_TOKEN_PROGRAM_ID"

	FeeNumeratorConfigEnvName = envConfigPrefix + "FEE_NUMERATOR"
	defaultFeeNumerator       = 1

	FeeDenominatorConfigEnvName = envConfigPrefix + "FEE_DENOMINATOR"
	defaultFeeDenominator       = 10_000

	ExtraAccountMetasSizeMarginConfigEnvName = envConfigPrefix + "EXTRA_ACCOUNT_METAS_SIZE_MARGIN"
	defaultExtraAccountMetasSizeMargin       = 100
)

var (
	defaultTokenProgramID           = token.Program2022Key
	defaultAssociatedTokenProgramID = token.AssociatedTokenAccountProgramKey
)

type conf struct {
	// An unset program id accepts whatever address the program is deployed at
	programID                   config.PublicKey
	tokenProgramID              config.PublicKey
	associatedTokenProgramID    config.PublicKey
	feeNumerator                config.Uint64
	feeDenominator              config.Uint64
	extraAccountMetasSizeMargin config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			programID:                   env.NewPublicKeyConfig(ProgramIDConfigEnvName, nil),
			tokenProgramID:              env.NewPublicKeyConfig(TokenProgramIDConfigEnvName, defaultTokenProgramID),
			associatedTokenProgramID:    env.NewPublicKeyConfig(AssociatedTokenProgramIDConfigEnvName, defaultAssociatedTokenProgramID),
			feeNumerator:                env.NewUint64Config(FeeNumeratorConfigEnvName, defaultFeeNumerator),
			feeDenominator:              env.NewUint64Config(FeeDenominatorConfigEnvName, defaultFeeDenominator),
			extraAccountMetasSizeMargin: env.NewUint64Config(ExtraAccountMetasSizeMarginConfigEnvName, defaultExtraAccountMetasSizeMargin),
		}
	}
}

// Overrides are static configuration values. Unset fields fall back to the
// defaults.
type Overrides struct {
	ProgramID                   ed25519.PublicKey
	TokenProgramID              ed25519.PublicKey
	AssociatedTokenProgramID    ed25519.PublicKey
	FeeNumerator                *uint64
	FeeDenominator              *uint64
	ExtraAccountMetasSizeMargin *uint64
}

// WithOverrides returns configuration backed by static values
func WithOverrides(overrides *Overrides) ConfigProvider {
	return func() *conf {
		return &conf{
			programID:                   memory.NewPublicKeyConfig(overrides.ProgramID, nil),
			tokenProgramID:              memory.NewPublicKeyConfig(overrides.TokenProgramID, defaultTokenProgramID),
			associatedTokenProgramID:    memory.NewPublicKeyConfig(overrides.AssociatedTokenProgramID, defaultAssociatedTokenProgramID),
			feeNumerator:                memory.NewUint64Config(overrides.FeeNumerator, defaultFeeNumerator),
			feeDenominator:              memory.NewUint64Config(overrides.FeeDenominator, defaultFeeDenominator),
			extraAccountMetasSizeMargin: memory.NewUint64Config(overrides.ExtraAccountMetasSizeMargin, defaultExtraAccountMetasSizeMargin),
		}
	}
}

type testOverrides struct {
	programID      ed25519.PublicKey
	feeNumerator   uint64
	feeDenominator uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return WithOverrides(&Overrides{
		ProgramID:      overrides.programID,
		FeeNumerator:   &overrides.feeNumerator,
		FeeDenominator: &overrides.feeDenominator,
	})
}
