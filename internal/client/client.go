// Package client implements the public Client surface: it builds connections,
// wires the transport, and delegates invocations to the engine.
package client

import (
	"context"

	"github.com/GreyCorbel/ExoHelper/internal/engine"
	transport "github.com/GreyCorbel/ExoHelper/internal/http"
	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// Client implements exo.Client over one connection.
type Client struct {
	conn    *exo.Connection
	invoker *engine.Invoker
}

// New builds a connection from config and returns a ready client. Credential
// and tenant problems surface here, before any invocation.
func New(ctx context.Context, config *exo.Config) (*Client, error) {
	conn, err := NewConnection(ctx, config)
	if err != nil {
		return nil, err
	}

	opts := []transport.Option{
		transport.WithTransport(conn.Transport),
		transport.WithUserAgent(conn.ClientApplication),
	}

	if config.Logger != nil {
		opts = append(opts, transport.WithLogger(config.Logger))

		if config.Debug {
			chain := exo.NewInterceptorChain()
			chain.AddRequestInterceptor(exo.LoggingInterceptor(config.Logger))
			chain.AddResponseInterceptor(exo.LoggingResponseInterceptor(config.Logger))

			opts = append(opts, transport.WithDebug(true), transport.WithInterceptors(chain))
		}
	}

	return &Client{
		conn:    conn,
		invoker: engine.New(conn, transport.NewClient(opts...)),
	}, nil
}

// Invoke implements exo.Client.
func (c *Client) Invoke(ctx context.Context, cmdlet string, params exo.Parameters, opts *exo.InvokeOptions) (*exo.Result, error) {
	return c.invoker.Invoke(ctx, cmdlet, params, opts)
}

// Connection implements exo.Client.
func (c *Client) Connection() *exo.Connection {
	return c.conn
}

// AccessToken implements exo.Client.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.conn.Tokens.GetToken(ctx, c.conn.Flavor.Scope())
}

// Recipients implements exo.Client.
func (c *Client) Recipients() exo.RecipientsClient {
	return &RecipientsClient{client: c}
}
