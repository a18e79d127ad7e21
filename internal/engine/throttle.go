package engine

import "strings"

// retryStatusCodes is the default set of retryable status codes:
// request-timeout, too-many-requests, service-unavailable, gateway-timeout.
var retryStatusCodes = map[int]struct{}{
	408: {},
	429: {},
	503: {},
	504: {},
}

// legacyRetryStatusCodes is the narrower set used before the service started
// surfacing 429 and 408 for throttling.
//
// Deprecated: retained only for comparison against older service editions;
// retryStatusCodes supersedes it.
var legacyRetryStatusCodes = map[int]struct{}{
	503: {},
	504: {},
}

// throttlingMessagePrefix is the exact wording the service uses when it
// throttles in-band with an ambiguous status code. Matches on prefix; the
// service appends the connection count after a colon.
const throttlingMessagePrefix = "Fail to create a runspace because you have exceeded the maximum number of connections allowed"

// isRetryableStatus reports whether the status code alone marks a response
// retryable.
func isRetryableStatus(status int) bool {
	_, ok := retryStatusCodes[status]

	return ok
}

// isThrottlingMessage reports whether the service-reported message signals
// throttling regardless of the status code.
func isThrottlingMessage(message string) bool {
	return strings.HasPrefix(message, throttlingMessagePrefix)
}
