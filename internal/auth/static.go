package auth

import (
	"context"

	"github.com/GreyCorbel/ExoHelper/internal/constants"
)

// StaticProvider serves a fixed bearer token for every scope. Useful for
// tests and for callers that manage token lifetime themselves.
type StaticProvider struct {
	token string
}

// NewStaticProvider creates a provider around a fixed token.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

// GetToken returns the fixed token regardless of scope.
func (p *StaticProvider) GetToken(ctx context.Context, scope string) (string, error) {
	return p.token, nil
}

// RefreshToken fails; a static token has no renewal path.
func (p *StaticProvider) RefreshToken(ctx context.Context, scope string) error {
	return constants.ErrStaticTokenNoRefresh
}
