// Package secrets resolves credentials from environment variables or Azure Key Vault.
package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource names where secrets are read from
type SecretSource string

const (
	SourceEnvironment SecretSource = "environment"
	SourceVault       SecretSource = "vault"
	// SourceAuto picks the vault outside local environments
	SourceAuto SecretSource = "auto"
)

// SecretGetter looks a secret up by name
type SecretGetter interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns SourceAuto into a concrete source for the environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto && source != "" {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	}
	return SourceVault
}

// envGetter treats the secret name as an environment variable
type envGetter struct{}

func (envGetter) GetSecret(_ context.Context, name string) (string, error) {
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("environment variable '%s' not set", name)
}

// Provider resolves database and storage credentials
type Provider struct {
	source SecretSource
	getter SecretGetter
	logger *zap.Logger
}

func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	var getter SecretGetter = envGetter{}
	if source == SourceVault {
		vault, err := NewVaultClient(cfg.VaultName, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		getter = vault
		if cfg.CacheEnabled {
			getter = NewCachedGetter(vault, cfg.CacheTTL)
		}
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)
	return &Provider{source: source, getter: getter, logger: logger}, nil
}

// NewProviderWithGetter builds a vault-backed provider around an existing getter
func NewProviderWithGetter(getter SecretGetter, logger *zap.Logger) *Provider {
	return &Provider{source: SourceVault, getter: getter, logger: logger}
}

// GetSecret reads secretName from the configured source
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	return p.getter.GetSecret(ctx, secretName)
}

// GetSecretOrEnv returns envName when it is set and otherwise looks up secretName
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if value := os.Getenv(envName); value != "" {
		p.logger.Debug("Secret overridden by environment", zap.String("env_name", envName))
		return value, nil
	}
	return p.GetSecret(ctx, secretName)
}

func (p *Provider) Source() SecretSource {
	return p.source
}

func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
