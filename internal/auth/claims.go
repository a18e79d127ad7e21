package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
)

// Claim names used during connection building.
const (
	// TenantClaim carries the tenant id the token was issued for.
	TenantClaim = "tid"

	// UPNClaim carries the caller's user principal name. Absent on app-only
	// tokens.
	UPNClaim = "upn"
)

// Claims parses the claim set of a bearer token without verifying its
// signature. Verification belongs to the service; the claims are only used
// as hints for tenant and routing resolution.
func Claims(bearer string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	parser := jwt.NewParser()

	_, _, err := parser.ParseUnverified(bearer, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrMalformedBearerToken, err)
	}

	return claims, nil
}

// StringClaim extracts a single string claim from a bearer token, returning
// an empty string when the claim is absent or not a string.
func StringClaim(bearer, name string) (string, error) {
	claims, err := Claims(bearer)
	if err != nil {
		return "", err
	}

	value, _ := claims[name].(string)

	return value, nil
}
