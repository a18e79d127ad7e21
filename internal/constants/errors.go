package constants

import "errors"

// Connection and configuration errors.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrUnknownFlavor        = errors.New("unknown endpoint flavor")
	ErrNoTokenProvider      = errors.New("no token provider or client credentials configured")
	ErrTenantNotResolvable  = errors.New("tenant id could not be resolved from any source")
	ErrStaticTokenNoRefresh = errors.New("static token cannot be refreshed")
	ErrNoCurrentConnection  = errors.New("no current connection, connect first")
	ErrCmdletNameRequired   = errors.New("cmdlet name is required")
	ErrNoProtector          = errors.New("secret parameter supplied but no protector configured")
	ErrNoProtectionKey      = errors.New("no protection key material available")
	ErrUnsupportedKeyType   = errors.New("protection key is not an RSA public key")
	ErrTokenRequestFailed   = errors.New("token request failed")
	ErrInvalidTokenResponse = errors.New("token response is missing an access token")
	ErrMalformedBearerToken = errors.New("bearer token is not a well-formed JWT")
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
	ErrCacheDisabled        = errors.New("cache disabled")
	ErrCacheEntryNotFound   = errors.New("cache entry not found")
	ErrIdentityRequired     = errors.New("identity is required")
	ErrInvalidParameterFlag = errors.New("parameter flags must be name=value")
	ErrInvalidErrorAction   = errors.New("invalid error action, expected stop, continue or ignore")
)
