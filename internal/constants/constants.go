package constants

import "time"

// HTTP and network timeouts.
const (
	// DefaultInvokeTimeout bounds a whole invocation, including paging and
	// backoff sleeps, unless the connection or call overrides it.
	DefaultInvokeTimeout = 60 * time.Second

	// TokenHTTPTimeout is the timeout for token endpoint requests.
	TokenHTTPTimeout = 30 * time.Second

	// KeyFetchTimeout is the timeout for fetching protection key material.
	KeyFetchTimeout = 10 * time.Second
)

// Retry policy.
const (
	// DefaultRetryCount is the default throttling retry budget per invocation.
	DefaultRetryCount = 10

	// TransportRetryMax is how many times the transport re-dials on
	// connection-level failures. Service-level retries are decided by the
	// invocation engine, never by the transport.
	TransportRetryMax = 2

	// TransportRetryWaitMin is the minimum transport-level retry wait.
	TransportRetryWaitMin = 250 * time.Millisecond

	// TransportRetryWaitMax is the maximum transport-level retry wait.
	TransportRetryWaitMax = 2 * time.Second

	// BackoffStep is the per-retry backoff increment used when the service
	// does not supply a Retry-After hint.
	BackoffStep = time.Second
)

// Page sizing. The service documents a default batch of 100 records and a
// hard maximum of 1000 per page.
const (
	// DefaultPageSize is applied when the caller requests no page size or a
	// non-positive one.
	DefaultPageSize = 100

	// MinPageSize is the smallest page size the service honors.
	MinPageSize = 100

	// MaxPageSize is the largest page size the service honors.
	MaxPageSize = 1000
)

// Endpoint templates keyed by endpoint flavor. The tenant identifier is
// interpolated into the path.
const (
	// StandardEndpointTemplate is the mailbox administration endpoint.
	StandardEndpointTemplate = "https://outlook.office365.com/adminapi/beta/%s/InvokeCommand"

	// ComplianceEndpointTemplate is the compliance (IPPS) endpoint.
	ComplianceEndpointTemplate = "https://ps.compliance.protection.outlook.com/adminapi/beta/%s/InvokeCommand"
)

// OAuth scopes keyed by endpoint flavor.
const (
	// StandardScope is the OAuth scope for the mailbox administration endpoint.
	StandardScope = "https://outlook.office365.com/.default"

	// ComplianceScope is the OAuth scope for the compliance endpoint.
	ComplianceScope = "https://ps.compliance.protection.outlook.com/.default"
)

// Wire protocol headers.
const (
	// HeaderCmdletName carries the invoked cmdlet name.
	HeaderCmdletName = "X-CmdletName"

	// HeaderConnectionID correlates all requests of one connection.
	HeaderConnectionID = "connection-id"

	// HeaderAnchorMailbox routes the request to the right backend partition.
	HeaderAnchorMailbox = "X-AnchorMailbox"

	// HeaderClientApplication tags the calling application.
	HeaderClientApplication = "X-ClientApplication"

	// HeaderClientRequestID is unique per wire request, including retries.
	HeaderClientRequestID = "client-request-id"

	// HeaderPrefer carries the odata.maxpagesize preference.
	HeaderPrefer = "Prefer"

	// HeaderExceptionType optionally carries a service-reported exception
	// class name on failure responses.
	HeaderExceptionType = "X-ExceptionType"

	// HeaderRetryAfter carries the service's backoff hint in seconds.
	HeaderRetryAfter = "Retry-After"

	// HeaderRateLimitRemaining reports remaining request budget.
	HeaderRateLimitRemaining = "Rate-Limit-Remaining"

	// HeaderRateLimitReset reports when the request budget resets.
	HeaderRateLimitReset = "Rate-Limit-Reset"
)

// DefaultClientApplication identifies this module to the service when the
// caller does not override it.
const DefaultClientApplication = "ExoHelper"

// SystemMailboxTemplate is the well-known anchor mailbox used for app-only
// contexts where no caller UPN is available. The tenant identifier is
// interpolated.
const SystemMailboxTemplate = "UPN:SystemMailbox{bb558c35-97f1-4cb9-8ff7-d53741dc928c}@%s"

// AnchorUserPrefix marks an anchor mailbox as a user routing hint.
const AnchorUserPrefix = "UPN:"

// GenericHashTableType is the discriminator the service expects on nested
// structured parameter values.
const GenericHashTableType = "#Exchange.GenericHashTable"

// DefaultAuthority is the token issuer used by the built-in client
// credentials provider.
const DefaultAuthority = "https://login.microsoftonline.com"

// Config file permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Protection key cache.
const (
	// KeyCacheTTL bounds how long a fetched protection key is reused before
	// the rotating key is fetched again.
	KeyCacheTTL = 15 * time.Minute

	// KeyCacheEntry is the cache key under which key material is stored.
	KeyCacheEntry = "exo-protection-key"
)
