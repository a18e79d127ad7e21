package exo_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	full := &exo.Error{
		Status:  429,
		Code:    exo.CodeTooManyRequests,
		Subtype: "Throttled",
		Message: "slow down",
	}
	assert.Equal(t, "TooManyRequests (Throttled, HTTP 429): slow down", full.Error())

	bare := &exo.Error{Code: exo.CodeTimeout, Message: "invocation timed out"}
	assert.Equal(t, "Timeout: invocation timed out", bare.Error())

	wrapped := &exo.Error{Code: exo.CodeUnknownError, Err: errors.New("dial tcp: refused")}
	assert.Contains(t, wrapped.Error(), "dial tcp: refused")
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("root cause")
	wrapped := fmt.Errorf("invoking Get-Mailbox: %w", &exo.Error{Code: exo.CodeTimeout, Err: cause})

	typed := &exo.Error{}
	assert.ErrorAs(t, wrapped, &typed)
	assert.Equal(t, exo.CodeTimeout, typed.Code)
	assert.ErrorIs(t, wrapped, cause)
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	throttled := fmt.Errorf("wrapped: %w", &exo.Error{Code: exo.CodeTooManyRequests})
	assert.True(t, exo.IsThrottled(throttled))
	assert.False(t, exo.IsTimeout(throttled))

	timeout := &exo.Error{Code: exo.CodeTimeout}
	assert.True(t, exo.IsTimeout(timeout))

	assert.True(t, exo.IsMissingTenant(&exo.Error{Code: exo.CodeMissingTenantID}))
	assert.True(t, exo.IsMissingAuthenticationFactory(&exo.Error{Code: exo.CodeMissingAuthenticationFactory}))

	assert.False(t, exo.IsThrottled(errors.New("plain")))
	assert.False(t, exo.IsThrottled(nil))
}

func TestFlavor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://outlook.office365.com/.default", exo.FlavorStandard.Scope())
	assert.Equal(t, "https://ps.compliance.protection.outlook.com/.default", exo.FlavorCompliance.Scope())

	assert.Equal(t,
		"https://outlook.office365.com/adminapi/beta/contoso/InvokeCommand",
		exo.FlavorStandard.EndpointURI("contoso"))
	assert.Equal(t,
		"https://ps.compliance.protection.outlook.com/adminapi/beta/contoso/InvokeCommand",
		exo.FlavorCompliance.EndpointURI("contoso"))

	assert.True(t, exo.FlavorStandard.Valid())
	assert.True(t, exo.FlavorCompliance.Valid())
	assert.False(t, exo.Flavor("bogus").Valid())
}

func TestValueConstructors(t *testing.T) {
	t.Parallel()

	scalar := exo.Scalar(42)
	assert.Equal(t, exo.KindScalar, scalar.Kind())
	assert.Equal(t, 42, scalar.ScalarValue())

	structured := exo.Struct(map[string]interface{}{"Region": "NAM"})
	assert.Equal(t, exo.KindStruct, structured.Kind())
	assert.Equal(t, "NAM", structured.Fields()["Region"])

	secret := exo.Secret("hunter2")
	assert.Equal(t, exo.KindSecret, secret.Kind())
	assert.Equal(t, "hunter2", secret.Plaintext())
}
