package wrapper

import (
	"context"
	"crypto/ed25519"
	"strconv"
	"sync"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/burn-hook/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// converter turns a raw source value into the wrapper's type. Sources that
// aren't supported return ErrUnsuportedConversion.
type converter[T any] func(raw interface{}) (T, error)

// TypedConfig is a utility wrapper converting a config.Config into a typed
// value with a default
type TypedConfig[T any] struct {
	override     config.Config
	defaultValue T
	convert      converter[T]

	stateMu   sync.RWMutex
	lastValue T
}

func newTypedConfig[T any](override config.Config, defaultValue T, convert converter[T]) *TypedConfig[T] {
	return &TypedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *TypedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	override, err := c.override.Get(ctx)
	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()
	if err == config.ErrNoValue {
		c.stateMu.Lock()
		c.lastValue = c.defaultValue
		c.stateMu.Unlock()
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	newValue, err := c.convert(override)
	if err != nil {
		return lastValue, err
	}

	c.stateMu.Lock()
	c.lastValue = newValue
	c.stateMu.Unlock()
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *TypedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *TypedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

// NewBoolConfig returns a new bool config utility wrapper
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (bool, error) {
		switch raw := raw.(type) {
		case []byte:
			return strconv.ParseBool(string(raw))
		case bool:
			return raw, nil
		default:
			return false, ErrUnsuportedConversion
		}
	})
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (uint64, error) {
		switch raw := raw.(type) {
		case []byte:
			return strconv.ParseUint(string(raw), 10, 64)
		case uint64:
			return raw, nil
		case uint:
			return uint64(raw), nil
		default:
			return 0, ErrUnsuportedConversion
		}
	})
}

// NewStringConfig returns a new string config utility wrapper
func NewStringConfig(override config.Config, defaultValue string) config.String {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (string, error) {
		switch raw := raw.(type) {
		case []byte:
			return string(raw), nil
		case string:
			return raw, nil
		default:
			return "", ErrUnsuportedConversion
		}
	})
}

// NewPublicKeyConfig returns a new public key config utility wrapper. String
// sources are decoded from base58.
func NewPublicKeyConfig(override config.Config, defaultValue ed25519.PublicKey) config.PublicKey {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (ed25519.PublicKey, error) {
		var encoded string
		switch raw := raw.(type) {
		case []byte:
			encoded = string(raw)
		case string:
			encoded = raw
		case ed25519.PublicKey:
			if len(raw) != ed25519.PublicKeySize {
				return nil, errors.Errorf("invalid public key length: %d", len(raw))
			}
			return raw, nil
		default:
			return nil, ErrUnsuportedConversion
		}

		decoded, err := base58.Decode(encoded)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58 public key")
		}
		if len(decoded) != ed25519.PublicKeySize {
			return nil, errors.Errorf("invalid public key length: %d", len(decoded))
		}
		return ed25519.PublicKey(decoded), nil
	})
}
