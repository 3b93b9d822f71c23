package memory

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/code-payments/burn-hook/pkg/config"
	"github.com/code-payments/burn-hook/pkg/config/wrapper"
)

// Config holds a value in process. It backs static overrides and lets tests
// change a value, or make it fail, while a typed config is in use.
type Config struct {
	stateMu  sync.RWMutex
	value    interface{}
	err      error
	shutdown bool
}

// NewConfig returns a config holding value. Nil values, including typed nil
// keys and pointers, yield config.ErrNoValue.
func NewConfig(value interface{}) *Config {
	return &Config{
		value: value,
	}
}

// Get implements config.Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case isUnset(c.value):
		return nil, config.ErrNoValue
	}

	if v, ok := c.value.(*uint64); ok {
		return *v, nil
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.stateMu.Lock()
	c.shutdown = true
	c.stateMu.Unlock()
}

// Set replaces the value returned by subsequent Get calls
func (c *Config) Set(value interface{}) {
	c.stateMu.Lock()
	c.value = value
	c.stateMu.Unlock()
}

// Clear removes the value, so Get reports config.ErrNoValue
func (c *Config) Clear() {
	c.Set(nil)
}

// SetError makes Get fail with err until it's called again with nil
func (c *Config) SetError(err error) {
	c.stateMu.Lock()
	c.err = err
	c.stateMu.Unlock()
}

// NewPublicKeyConfig returns a static public key config. A nil value uses the
// default.
func NewPublicKeyConfig(value, defaultValue ed25519.PublicKey) config.PublicKey {
	return wrapper.NewPublicKeyConfig(NewConfig(value), defaultValue)
}

// NewUint64Config returns a static uint64 config. A nil value uses the
// default.
func NewUint64Config(value *uint64, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(value), defaultValue)
}

func isUnset(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case ed25519.PublicKey:
		return v == nil
	case *uint64:
		return v == nil
	default:
		return false
	}
}
