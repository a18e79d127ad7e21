package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/GreyCorbel/ExoHelper/internal/auth"
	"github.com/GreyCorbel/ExoHelper/internal/constants"
	"github.com/GreyCorbel/ExoHelper/internal/protect"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// NewConnection validates config, resolves the tenant and anchor mailbox, and
// eagerly acquires a first token so credential problems surface at connect
// time rather than on the first invocation.
func NewConnection(ctx context.Context, config *exo.Config) (*exo.Connection, error) {
	if config == nil {
		return nil, constants.ErrConfigRequired
	}

	flavor := config.Flavor
	if flavor == "" {
		flavor = exo.FlavorStandard
	}

	if !flavor.Valid() {
		return nil, fmt.Errorf("%q: %w", config.Flavor, constants.ErrUnknownFlavor)
	}

	provider, err := resolveProvider(config)
	if err != nil {
		return nil, err
	}

	// Tenant resolution that cannot succeed must fail before any network
	// traffic happens.
	tenant := config.TenantID
	if tenant == "" {
		if reporter, ok := provider.(exo.TenantReporter); ok {
			tenant = reporter.TenantID()
		}
	}

	var bearer string

	if tenant == "" {
		if flavor != exo.FlavorStandard {
			return nil, &exo.Error{
				Code:    exo.CodeMissingTenantID,
				Message: "tenant not configured and not derivable for this endpoint flavor",
				Err:     constants.ErrTenantNotResolvable,
			}
		}

		bearer, err = provider.GetToken(ctx, flavor.Scope())
		if err != nil {
			return nil, &exo.Error{
				Code:    exo.CodeUnknownError,
				Message: "token acquisition failed",
				Err:     err,
			}
		}

		tenant, _ = auth.StringClaim(bearer, auth.TenantClaim)
		if tenant == "" {
			return nil, &exo.Error{
				Code:    exo.CodeMissingTenantID,
				Message: "tenant not configured and token carries no tenant claim",
				Err:     constants.ErrTenantNotResolvable,
			}
		}
	}

	if bearer == "" {
		bearer, err = provider.GetToken(ctx, flavor.Scope())
		if err != nil {
			return nil, &exo.Error{
				Code:    exo.CodeUnknownError,
				Message: "token acquisition failed",
				Err:     err,
			}
		}
	}

	anchor := resolveAnchor(config.AnchorMailbox, bearer, tenant)

	timeout := config.DefaultTimeout
	if timeout <= 0 {
		timeout = constants.DefaultInvokeTimeout
	}

	retries := config.DefaultRetries
	if retries < 0 {
		retries = 0
	}

	application := config.ClientApplication
	if application == "" {
		application = constants.DefaultClientApplication
	}

	pool := &http.Client{}

	protector, err := resolveProtector(config, pool)
	if err != nil {
		return nil, err
	}

	return &exo.Connection{
		ID:                uuid.NewString(),
		TenantID:          tenant,
		AnchorMailbox:     anchor,
		Flavor:            flavor,
		URI:               flavor.EndpointURI(tenant),
		ClientApplication: application,
		DefaultTimeout:    timeout,
		DefaultRetries:    retries,
		Tokens:            provider,
		Protector:         protector,
		Transport:         pool,
		Logger:            config.Logger,
	}, nil
}

// resolveProtector picks the secret-value protector: an explicit one wins, a
// protection key URL builds the remote-key protector over the shared
// transport, and without either secrets stay unusable for this connection.
func resolveProtector(config *exo.Config, pool *http.Client) (exo.Protector, error) {
	if config.Protector != nil {
		return config.Protector, nil
	}

	if config.ProtectionKeyURL == "" {
		return nil, nil
	}

	keyCache, err := exo.NewCacheFromConfig(config.ProtectionCache)
	if err != nil {
		return nil, fmt.Errorf("building protection key cache: %w", err)
	}

	return protect.New(protect.Config{
		KeyURL:    config.ProtectionKeyURL,
		Cache:     keyCache,
		Transport: pool,
		Logger:    config.Logger,
	})
}

// resolveProvider picks the token provider: an explicit one wins, client
// credentials build the built-in provider, anything else is a configuration
// error.
func resolveProvider(config *exo.Config) (exo.TokenProvider, error) {
	if config.TokenProvider != nil {
		return config.TokenProvider, nil
	}

	if config.ClientID != "" && config.ClientSecret != "" {
		if config.TenantID == "" {
			// The client credentials grant is issued per tenant; there is no
			// token to read a tenant claim from before the tenant is known.
			return nil, &exo.Error{
				Code:    exo.CodeMissingTenantID,
				Message: "client credentials require an explicit tenant",
				Err:     constants.ErrTenantNotResolvable,
			}
		}

		return auth.NewClientCredentialsProvider(&auth.ClientCredentialsConfig{
			TenantID:     config.TenantID,
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Authority:    config.Authority,
		}), nil
	}

	return nil, &exo.Error{
		Code:    exo.CodeMissingAuthenticationFactory,
		Message: "no token provider or client credentials configured",
		Err:     constants.ErrNoTokenProvider,
	}
}

// resolveAnchor produces the routing hint sent on every request. An explicit
// anchor with a routing prefix passes through verbatim; a bare address is
// marked as a user hint; otherwise the caller UPN claim is used, and app-only
// tokens fall back to the tenant's well-known system mailbox.
func resolveAnchor(explicit, bearer, tenant string) string {
	if explicit != "" {
		if strings.Contains(explicit, ":") {
			return explicit
		}

		return constants.AnchorUserPrefix + explicit
	}

	upn, err := auth.StringClaim(bearer, auth.UPNClaim)
	if err == nil && upn != "" {
		return constants.AnchorUserPrefix + upn
	}

	return fmt.Sprintf(constants.SystemMailboxTemplate, tenant)
}
