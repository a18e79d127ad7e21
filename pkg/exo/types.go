package exo

import (
	"fmt"
	"net/http"
	"time"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
)

// Flavor selects which of the two service variants a connection targets.
type Flavor string

const (
	// FlavorStandard targets the mailbox administration endpoint.
	FlavorStandard Flavor = "standard"

	// FlavorCompliance targets the compliance (IPPS) endpoint.
	FlavorCompliance Flavor = "compliance"
)

// Scope returns the OAuth scope requested for tokens used against this
// flavor's endpoint.
func (f Flavor) Scope() string {
	if f == FlavorCompliance {
		return constants.ComplianceScope
	}

	return constants.StandardScope
}

// EndpointURI returns the invocation endpoint for the given tenant.
func (f Flavor) EndpointURI(tenantID string) string {
	if f == FlavorCompliance {
		return fmt.Sprintf(constants.ComplianceEndpointTemplate, tenantID)
	}

	return fmt.Sprintf(constants.StandardEndpointTemplate, tenantID)
}

// Valid reports whether f names a known flavor.
func (f Flavor) Valid() bool {
	return f == FlavorStandard || f == FlavorCompliance
}

// ValueKind discriminates parameter value variants.
type ValueKind int

const (
	// KindScalar is a plain value sent as-is.
	KindScalar ValueKind = iota

	// KindStruct is a nested map that receives the service's structured-value
	// discriminator before transmission.
	KindStruct

	// KindSecret is a sensitive string replaced by its ciphertext before
	// transmission.
	KindSecret
)

// Value is one parameter value in a tagged variant form. Callers construct
// values through Scalar, Struct, or Secret rather than relying on runtime
// shape inspection.
type Value struct {
	kind   ValueKind
	scalar interface{}
	fields map[string]interface{}
	secret string
}

// Scalar wraps a plain value. Nested maps inside a scalar are transmitted
// untouched; use Struct for values the service should treat as structured.
func Scalar(v interface{}) Value {
	return Value{kind: KindScalar, scalar: v}
}

// Struct wraps a nested map that the service should treat as a generic
// structured value.
func Struct(fields map[string]interface{}) Value {
	return Value{kind: KindStruct, fields: fields}
}

// Secret wraps a sensitive string that must never be transmitted in
// plaintext.
func Secret(plaintext string) Value {
	return Value{kind: KindSecret, secret: plaintext}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// ScalarValue returns the wrapped scalar. Meaningful only for KindScalar.
func (v Value) ScalarValue() interface{} { return v.scalar }

// Fields returns the wrapped map. Meaningful only for KindStruct.
func (v Value) Fields() map[string]interface{} { return v.fields }

// Plaintext returns the wrapped secret. Meaningful only for KindSecret.
func (v Value) Plaintext() string { return v.secret }

// Parameters is the parameter bag of one invocation, keyed by parameter name.
type Parameters map[string]Value

// Record is one result record. The schema is opaque to the engine.
type Record map[string]interface{}

// RateLimit is the service's rate-limit telemetry, surfaced only when the
// caller opts in.
type RateLimit struct {
	Remaining string `json:"remaining" yaml:"remaining"`
	Reset     string `json:"reset"     yaml:"reset"`
}

// Page is one page of results as returned by the service.
type Page struct {
	// Records are this page's result records, already projected when metadata
	// stripping is enabled.
	Records []Record

	// RawText is set instead of Records when the service returned a bare
	// non-JSON payload (a known quirk of some cmdlets).
	RawText string

	// NextLink is the continuation URI, empty on the last page.
	NextLink string

	// Warnings are the service-reported warnings for this page.
	Warnings []string

	// RateLimit is this page's rate-limit telemetry, nil unless requested.
	RateLimit *RateLimit
}

// Result accumulates everything one invocation yielded.
type Result struct {
	// Records are all yielded records across pages, capped at MaxResults.
	Records []Record

	// RawText is set when the service returned a bare non-JSON payload.
	RawText string

	// Warnings are all service-reported warnings, in page order.
	Warnings []string

	// RateLimit is the most recently seen telemetry, nil unless requested.
	RateLimit *RateLimit
}

// ErrorAction controls what the engine does with a fatal failure.
type ErrorAction int

const (
	// ErrorActionStop returns the typed error to the caller. Default.
	ErrorActionStop ErrorAction = iota

	// ErrorActionReport delivers the typed error to the OnError callback and
	// ends the call without a returned error.
	ErrorActionReport

	// ErrorActionIgnore silently ends the call.
	ErrorActionIgnore
)

// InvokeOptions shape a single invocation. The zero value asks for the
// connection defaults.
type InvokeOptions struct {
	// Select lists properties the service should project into results.
	Select []string

	// PageSize is the requested page size. Values outside the service's
	// documented bounds are clamped; non-positive values use the default.
	PageSize int

	// MaxResults caps the total number of records yielded. Zero means
	// unbounded.
	MaxResults int

	// MaxRetries overrides the connection's throttling retry budget for this
	// call. Nil keeps the connection default; zero disables retries.
	MaxRetries *int

	// Timeout bounds this call. It is only honored when shorter than the
	// connection default.
	Timeout time.Duration

	// ShowWarnings collects service warnings into the result and logs them.
	ShowWarnings bool

	// StripMetadata removes service-internal metadata properties from every
	// record before it is yielded.
	StripMetadata bool

	// RateLimitTelemetry surfaces rate-limit headers on pages and the result.
	RateLimitTelemetry bool

	// ErrorAction selects how a fatal failure is surfaced.
	ErrorAction ErrorAction

	// OnError receives the typed error under ErrorActionReport.
	OnError func(*Error)

	// OnPage, when set, receives each page as soon as it is classified.
	// Records delivered here are never retracted, even if a later page of the
	// same call fails.
	OnPage func(*Page) error
}

// Connection holds everything one session needs to invoke commands. A
// Connection is fully valid once built and never mutated afterwards.
type Connection struct {
	// ID is an opaque unique identifier sent on every request for
	// service-side correlation.
	ID string

	// TenantID is the tenant all invocations target.
	TenantID string

	// AnchorMailbox is the routing hint sent on every request.
	AnchorMailbox string

	// Flavor selects the endpoint variant.
	Flavor Flavor

	// URI is the invocation endpoint, derived from Flavor and TenantID.
	URI string

	// ClientApplication tags requests for the service's client telemetry.
	ClientApplication string

	// DefaultTimeout bounds invocations that carry no shorter override.
	DefaultTimeout time.Duration

	// DefaultRetries is the throttling retry budget applied when a call does
	// not override it.
	DefaultRetries int

	// Tokens supplies a bearer token for the endpoint scope, fresh before
	// every wire request.
	Tokens TokenProvider

	// Protector encrypts secret parameter values. May be nil when no secrets
	// are ever sent.
	Protector Protector

	// Transport is the pooled HTTP client shared by all invocations on this
	// connection. Safe for concurrent use.
	Transport *http.Client

	// Logger receives engine and transport diagnostics. May be nil.
	Logger Logger
}
