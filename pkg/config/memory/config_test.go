package memory

import (
	"context"
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/burn-hook/pkg/config"
)

func TestConfig_Lifecycle(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(nil)
	_, err := c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.Set("value")
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "value", val)

	induced := errors.New("induced")
	c.SetError(induced)
	_, err = c.Get(ctx)
	assert.Equal(t, induced, err)

	c.SetError(nil)
	c.Clear()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.Shutdown()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestConfig_TypedNil(t *testing.T) {
	ctx := context.Background()

	var key ed25519.PublicKey
	_, err := NewConfig(key).Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	var amount *uint64
	_, err = NewConfig(amount).Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	value := uint64(42)
	val, err := NewConfig(&value).Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 42, val)
}

func TestTypedConfigs(t *testing.T) {
	ctx := context.Background()

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	other, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	assert.Equal(t, pub, NewPublicKeyConfig(pub, other).Get(ctx))
	assert.Equal(t, other, NewPublicKeyConfig(nil, other).Get(ctx))

	value := uint64(7)
	assert.EqualValues(t, 7, NewUint64Config(&value, 100).Get(ctx))
	assert.EqualValues(t, 100, NewUint64Config(nil, 100).Get(ctx))
}
