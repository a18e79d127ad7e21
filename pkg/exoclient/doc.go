// Package exoclient provides the primary entry point for constructing a
// client for the remote command invocation service that implements the
// exo.Client interface.
//
// It layers configuration, HTTP transport, authentication, tenant and anchor
// mailbox resolution on top of the types and contracts defined in the exo
// package. Most applications should import exoclient to build a client, then
// use the returned exo.Client to invoke commands.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/GreyCorbel/ExoHelper/pkg/exo"
//	  "github.com/GreyCorbel/ExoHelper/pkg/exoclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // With client credentials:
//	  cli, err := exoclient.New(ctx, &exo.Config{
//	    TenantID:     "contoso.onmicrosoft.com",
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with an access token you already have:
//	  cli, err = exoclient.NewWithToken(ctx, "contoso.onmicrosoft.com", "eyJhbGciOi...", nil)
//	  if err != nil { log.Fatal(err) }
//
//	  result, err := cli.Invoke(ctx, "Get-Mailbox", exo.Parameters{
//	    "Identity": exo.Scalar("user@contoso.onmicrosoft.com"),
//	  }, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = result
//	}
//
// # Current connection
//
// The most recently created client is tracked process-wide and available
// through Current. This mirrors session-oriented tooling where one connection
// at a time is the norm; concurrent creators race and the last one wins.
// Libraries should pass clients explicitly and ignore this facility.
package exoclient
