// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/envlock/envlock/internal/config"
	cryptoService "github.com/envlock/envlock/internal/crypto/service"
	"github.com/envlock/envlock/internal/envfile"
	"github.com/envlock/envlock/internal/generator"
	"github.com/envlock/envlock/internal/keyring"
	"github.com/envlock/envlock/internal/metrics"
	"github.com/envlock/envlock/internal/rotation"
	"github.com/envlock/envlock/internal/secret"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Key material
	keyProvider *keyring.Provider
	aead        cryptoService.AEAD

	// Vault components
	rawStore   *secret.Store
	store      secret.SecretStore
	loader     *envfile.Loader
	history    *rotation.History
	rotator    *rotation.Rotator
	generators *generator.Registry

	// Initialization flags and mutex for thread-safety
	mu              sync.Mutex
	loggerInit      sync.Once
	metricsInit     sync.Once
	keyProviderInit sync.Once
	aeadInit        sync.Once
	storeInit       sync.Once
	loaderInit      sync.Once
	historyInit     sync.Once
	rotatorInit     sync.Once
	generatorsInit  sync.Once
	initErrors      map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// KeyProvider returns the master key provider.
func (c *Container) KeyProvider() *keyring.Provider {
	c.keyProviderInit.Do(func() {
		c.keyProvider = keyring.NewProvider(
			c.config.KeyFile,
			c.config.Environment,
			c.config.CI,
			c.config.Algorithm,
			c.Logger(),
		)
	})
	return c.keyProvider
}

// AEAD returns the cipher for the active master key, loading and validating
// the key on first access.
func (c *Container) AEAD() (cryptoService.AEAD, error) {
	c.aeadInit.Do(func() {
		key, err := c.KeyProvider().Load()
		if err != nil {
			c.initErrors["aead"] = err
			return
		}
		defer key.Zero()

		aead, err := cryptoService.NewAEADManager().CreateCipher(key.Key, c.config.Algorithm)
		if err != nil {
			c.initErrors["aead"] = err
			return
		}
		c.aead = aead
	})
	if err, exists := c.initErrors["aead"]; exists {
		return nil, err
	}
	return c.aead, nil
}

// BusinessMetrics returns the metrics recorder: a real one when metrics are
// enabled, a no-op otherwise.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.metricsInit.Do(func() {
		if !c.config.MetricsEnabled {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}

		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metrics"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		business, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.metricsProvider = provider
		c.businessMetrics = business
	})
	if err, exists := c.initErrors["metrics"]; exists {
		return nil, err
	}
	return c.businessMetrics, nil
}

// Store returns the secret store, decorated with metrics when enabled.
func (c *Container) Store() (secret.SecretStore, error) {
	c.storeInit.Do(func() {
		aead, err := c.AEAD()
		if err != nil {
			c.initErrors["store"] = fmt.Errorf("failed to get cipher for secret store: %w", err)
			return
		}

		business, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["store"] = err
			return
		}

		c.rawStore = secret.NewStore(aead, c.Logger())
		c.store = secret.NewStoreWithMetrics(c.rawStore, business)
	})
	if storedErr, exists := c.initErrors["store"]; exists {
		return nil, storedErr
	}
	return c.store, nil
}

// Loader returns the env file loader.
func (c *Container) Loader() (*envfile.Loader, error) {
	c.loaderInit.Do(func() {
		aead, err := c.AEAD()
		if err != nil {
			c.initErrors["loader"] = fmt.Errorf("failed to get cipher for env loader: %w", err)
			return
		}
		business, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["loader"] = err
			return
		}
		c.loader = envfile.NewLoader(aead, c.Logger(), business)
	})
	if err, exists := c.initErrors["loader"]; exists {
		return nil, err
	}
	return c.loader, nil
}

// History returns the rotation audit trail.
func (c *Container) History() *rotation.History {
	c.historyInit.Do(func() {
		c.history = rotation.NewHistory(c.config.AuditLog)
	})
	return c.history
}

// Rotator returns the key rotator. It initializes the store first so rotation
// always operates on the live instance.
func (c *Container) Rotator() (*rotation.Rotator, error) {
	c.rotatorInit.Do(func() {
		if _, err := c.Store(); err != nil {
			c.initErrors["rotator"] = fmt.Errorf("failed to get store for rotator: %w", err)
			return
		}
		business, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["rotator"] = err
			return
		}
		c.rotator = rotation.NewRotator(c.KeyProvider(), c.rawStore, c.History(), c.Logger(), business)
	})
	if err, exists := c.initErrors["rotator"]; exists {
		return nil, err
	}
	return c.rotator, nil
}

// Generators returns the secret generator registry.
func (c *Container) Generators() *generator.Registry {
	c.generatorsInit.Do(func() {
		c.generators = generator.NewRegistry()
	})
	return c.generators
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
