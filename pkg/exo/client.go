package exo

import (
	"context"
	"time"
)

// Client is the public surface of one connection. Implementations are safe
// for concurrent use; each Invoke runs as an independent sequential loop over
// the shared pooled transport.
type Client interface {
	// Invoke runs one named remote cmdlet with the given parameter bag,
	// paging through results until the continuation link is exhausted or the
	// configured result cap is reached. A nil opts uses connection defaults.
	//
	// When opts selects ErrorActionReport or ErrorActionIgnore, Invoke
	// returns whatever was accumulated before the failure and a nil error.
	// Under ErrorActionStop a partially filled result is returned alongside
	// the typed error; records already yielded are never retracted.
	Invoke(ctx context.Context, cmdlet string, params Parameters, opts *InvokeOptions) (*Result, error)

	// Connection returns the immutable connection this client operates on.
	Connection() *Connection

	// AccessToken returns a bearer token for the connection's endpoint scope.
	AccessToken(ctx context.Context) (string, error)

	// Recipients returns the typed convenience wrapper over common recipient
	// cmdlets.
	Recipients() RecipientsClient
}

// RecipientsClient wraps a handful of recipient cmdlets behind a typed
// surface. It exists as a convenience; anything it does can be expressed
// through Client.Invoke directly.
type RecipientsClient interface {
	// GetMailbox fetches a single mailbox by identity.
	GetMailbox(ctx context.Context, identity string) (Record, error)

	// ListMailboxes pages through all mailboxes, honoring opts.
	ListMailboxes(ctx context.Context, opts *InvokeOptions) ([]Record, error)

	// GetRecipient fetches a single recipient by identity.
	GetRecipient(ctx context.Context, identity string) (Record, error)
}

// TokenProvider supplies bearer tokens for a requested scope. The engine
// calls GetToken fresh before every single wire request, so implementations
// should cache and renew internally. Long multi-page pulls must keep working
// across a token's validity window.
type TokenProvider interface {
	// GetToken returns a currently valid bearer token for scope.
	GetToken(ctx context.Context, scope string) (string, error)

	// RefreshToken discards any cached token for scope and acquires a fresh
	// one.
	RefreshToken(ctx context.Context, scope string) error
}

// TenantReporter is optionally implemented by token providers that know
// which tenant their credentials belong to. The connection builder consults
// it before falling back to token claims.
type TenantReporter interface {
	TenantID() string
}

// Protector encrypts individual secret-bearing parameter values. The engine
// fails an invocation fast when Protect cannot produce ciphertext; plaintext
// secrets are never transmitted.
type Protector interface {
	Protect(ctx context.Context, plaintext string) (string, error)
}

// Logger receives structured diagnostics from the engine and transport.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config describes how to build a connection.
//
// # Authentication
//
// Provide either TokenProvider (anything satisfying the contract, typically
// wrapping a platform credential) or ClientID/ClientSecret for the built-in
// client credentials flow. One of the two is mandatory; configuration with
// neither fails with MissingAuthenticationFactory before any network traffic.
//
// # Tenant resolution
//
// TenantID is used verbatim when set. Otherwise the builder asks the token
// provider (TenantReporter), and for the standard flavor finally falls back
// to the tenant claim of an eagerly acquired token. Connection building fails
// with MissingTenantId when the tenant remains unknown.
//
// # Anchor mailbox
//
// AnchorMailbox is passed through verbatim when it already carries a routing
// prefix; a bare address is prefixed as a user routing hint. When unset, the
// caller UPN claim of the eager token is used, and app-only contexts fall
// back to the well-known system mailbox of the tenant.
type Config struct {
	// TenantID is the target tenant. Optional when it can be derived from
	// the credentials.
	TenantID string

	// Flavor selects the endpoint variant. Defaults to FlavorStandard.
	Flavor Flavor

	// AnchorMailbox overrides routing hint resolution.
	AnchorMailbox string

	// ClientID and ClientSecret configure the built-in client credentials
	// token provider. Ignored when TokenProvider is set.
	ClientID     string
	ClientSecret string

	// Authority overrides the token issuer for the built-in provider.
	// Defaults to the public cloud issuer.
	Authority string

	// TokenProvider supplies bearer tokens. Takes precedence over
	// ClientID/ClientSecret.
	TokenProvider TokenProvider

	// Protector encrypts secret parameter values. Takes precedence over
	// ProtectionKeyURL.
	Protector Protector

	// ProtectionKeyURL is the endpoint serving the service's PEM-encoded RSA
	// public key. When set and Protector is nil, the built-in remote-key
	// protector is constructed. Invocations carrying secret parameters fail
	// fast when neither is configured.
	ProtectionKeyURL string

	// ProtectionCache configures how fetched key material is cached. Only
	// consulted for the built-in protector; nil uses the in-process default.
	ProtectionCache *CacheConfig

	// DefaultTimeout bounds invocations without a per-call override.
	DefaultTimeout time.Duration

	// DefaultRetries is the throttling retry budget per invocation.
	// Negative values mean zero retries.
	DefaultRetries int

	// ClientApplication overrides the client tag sent on every request.
	ClientApplication string

	// Logger receives structured diagnostics. Optional.
	Logger Logger

	// Debug enables request/response logging on the transport when a Logger
	// is present.
	Debug bool
}
