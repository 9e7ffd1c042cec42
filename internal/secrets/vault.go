package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

// VaultClient reads the latest version of a secret from Azure Key Vault
type VaultClient struct {
	client   *azsecrets.Client
	vaultURL string
	logger   *zap.Logger
}

// NewVaultClient authenticates with DefaultAzureCredential, which covers environment
// credentials, managed identity and an Azure CLI login.
func NewVaultClient(vaultName string, logger *zap.Logger) (*VaultClient, error) {
	if vaultName == "" {
		return nil, fmt.Errorf("vault name is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", vaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	logger.Info("Azure Key Vault client initialized", zap.String("vault_url", vaultURL))
	return &VaultClient{client: client, vaultURL: vaultURL, logger: logger}, nil
}

func (v *VaultClient) GetSecret(ctx context.Context, secretName string) (string, error) {
	// An empty version selects the latest
	resp, err := v.client.GetSecret(ctx, secretName, "", nil)
	if err != nil {
		v.logger.Error("Key Vault lookup failed",
			zap.String("secret_name", secretName),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to get secret '%s': %w", secretName, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret '%s' has no value", secretName)
	}
	return *resp.Value, nil
}

// CachedGetter remembers successful lookups of another getter for a fixed TTL.
// Failures are never cached.
type CachedGetter struct {
	next SecretGetter
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// NewCachedGetter wraps next. A ttl <= 0 defaults to five minutes.
func NewCachedGetter(next SecretGetter, ttl time.Duration) *CachedGetter {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedGetter{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// SetClock replaces time.Now
func (c *CachedGetter) SetClock(now func() time.Time) {
	c.now = now
}

func (c *CachedGetter) GetSecret(ctx context.Context, secretName string) (string, error) {
	c.mu.Lock()
	entry, ok := c.entries[secretName]
	if ok && c.now().Before(entry.expiresAt) {
		c.mu.Unlock()
		return entry.value, nil
	}
	delete(c.entries, secretName)
	c.mu.Unlock()

	value, err := c.next.GetSecret(ctx, secretName)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[secretName] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}
