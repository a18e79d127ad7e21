// Package protect encrypts sensitive parameter values with the service's
// rotating RSA public key so plaintext secrets never travel on the wire.
package protect

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"time"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
	transport "github.com/GreyCorbel/ExoHelper/internal/http"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// Config configures a key protector.
type Config struct {
	// KeyURL is the endpoint serving the current PEM-encoded RSA public key.
	KeyURL string

	// Cache holds fetched key material across invocations. Optional; when
	// nil, every Protect call refetches the key.
	Cache exo.Cache

	// Transport is the HTTP client used for key fetches. Optional.
	Transport *http.Client

	// Logger receives key lifecycle events. Optional.
	Logger exo.Logger
}

// KeyProtector implements exo.Protector against a remote rotating key.
type KeyProtector struct {
	keyURL string
	cache  exo.Cache
	client *transport.Client
	logger exo.Logger
}

// New creates a protector. The key endpoint URL is required.
func New(config Config) (*KeyProtector, error) {
	if config.KeyURL == "" {
		return nil, fmt.Errorf("creating protector: %w", constants.ErrNoProtectionKey)
	}

	cache := config.Cache
	if cache == nil {
		cache = exo.NewNoOpCache()
	}

	opts := []transport.Option{}
	if config.Transport != nil {
		opts = append(opts, transport.WithTransport(config.Transport))
	}

	if config.Logger != nil {
		opts = append(opts, transport.WithLogger(config.Logger))
	}

	return &KeyProtector{
		keyURL: config.KeyURL,
		cache:  cache,
		client: transport.NewClient(opts...),
		logger: config.Logger,
	}, nil
}

// Protect encrypts plaintext with RSA-OAEP over SHA-256 and returns the
// ciphertext base64-encoded. Key material is fetched lazily and cached.
func (p *KeyProtector) Protect(ctx context.Context, plaintext string) (string, error) {
	key, err := p.publicKey(ctx)
	if err != nil {
		return "", err
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, key, []byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("encrypting value: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (p *KeyProtector) publicKey(ctx context.Context) (*rsa.PublicKey, error) {
	if entry, err := p.cache.Get(ctx, constants.KeyCacheEntry); err == nil {
		key, parseErr := parseKey(entry.Value)
		if parseErr == nil {
			return key, nil
		}

		if p.logger != nil {
			p.logger.Warn("cached protection key unusable, refetching", map[string]interface{}{
				"error": parseErr.Error(),
			})
		}
	}

	raw, err := p.fetchKey(ctx)
	if err != nil {
		return nil, err
	}

	key, err := parseKey(raw)
	if err != nil {
		return nil, err
	}

	err = p.cache.Set(ctx, constants.KeyCacheEntry, &exo.CacheEntry{
		Value:    raw,
		StoredAt: time.Now(),
		TTL:      constants.KeyCacheTTL,
	})
	if err != nil && p.logger != nil {
		p.logger.Warn("caching protection key failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return key, nil
}

func (p *KeyProtector) fetchKey(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.KeyFetchTimeout)
	defer cancel()

	resp, err := p.client.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    p.keyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching protection key: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching protection key: status %d: %w", resp.StatusCode, constants.ErrNoProtectionKey)
	}

	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("fetching protection key: empty response: %w", constants.ErrNoProtectionKey)
	}

	if p.logger != nil {
		p.logger.Debug("protection key fetched", map[string]interface{}{
			"url": p.keyURL,
		})
	}

	return resp.Body, nil
}

// parseKey decodes a PEM-encoded public key and requires it to be RSA.
func parseKey(raw []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("parsing protection key: not PEM encoded: %w", constants.ErrNoProtectionKey)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing protection key: %w", err)
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("parsing protection key: %T: %w", parsed, constants.ErrUnsupportedKeyType)
	}

	return key, nil
}
