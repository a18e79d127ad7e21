// Package exoclient provides the main entry point for creating clients for
// the remote command invocation service.
package exoclient

import (
	"context"
	"sync"

	"github.com/GreyCorbel/ExoHelper/internal/auth"
	"github.com/GreyCorbel/ExoHelper/internal/client"
	"github.com/GreyCorbel/ExoHelper/internal/constants"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// New creates a client from config. Credential and tenant resolution problems
// surface here, before the first invocation.
func New(ctx context.Context, config *exo.Config) (exo.Client, error) {
	if config == nil {
		return nil, constants.ErrConfigRequired
	}

	built, err := client.New(ctx, config)
	if err != nil {
		return nil, err
	}

	setCurrent(built)

	return built, nil
}

// NewWithToken creates a client around an externally acquired bearer token.
// The token is used as-is and never refreshed; long-running invocations should
// prefer New with a refreshing provider.
func NewWithToken(ctx context.Context, tenantID, token string, config *exo.Config) (exo.Client, error) {
	if config == nil {
		config = &exo.Config{}
	}

	config.TenantID = tenantID
	config.TokenProvider = auth.NewStaticProvider(token)

	return New(ctx, config)
}

// NewWithClientCredentials creates a client using the built-in confidential
// client flow.
func NewWithClientCredentials(ctx context.Context, tenantID, clientID, clientSecret string, config *exo.Config) (exo.Client, error) {
	if config == nil {
		config = &exo.Config{}
	}

	config.TenantID = tenantID
	config.ClientID = clientID
	config.ClientSecret = clientSecret

	return New(ctx, config)
}

// The process-wide current connection. Kept in this outermost layer only; the
// engine and inner packages always receive their connection explicitly.
//
//nolint:gochecknoglobals
var (
	currentMu sync.RWMutex
	current   exo.Client
)

func setCurrent(c exo.Client) {
	currentMu.Lock()
	defer currentMu.Unlock()

	current = c
}

// Current returns the most recently created client. When several goroutines
// create clients concurrently, the last one to finish wins. Returns an error
// when no client has been created in this process.
func Current() (exo.Client, error) {
	currentMu.RLock()
	defer currentMu.RUnlock()

	if current == nil {
		return nil, constants.ErrNoCurrentConnection
	}

	return current, nil
}

// ClearCurrent forgets the current client. Subsequent Current calls fail
// until a new client is created.
func ClearCurrent() {
	currentMu.Lock()
	defer currentMu.Unlock()

	current = nil
}
