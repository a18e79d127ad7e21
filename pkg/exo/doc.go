// Package exo provides the types, interfaces, and helpers for invoking
// Exchange Online admin-API cmdlets over the REST InvokeCommand endpoint.
//
// # Overview
//
// Every logical operation against the service is a named remote cmdlet plus a
// parameter bag, POSTed to a single endpoint that returns OData-style paged
// collections. This package defines the public surface: Config, Connection,
// Parameters, InvokeOptions, the typed error taxonomy, and the TokenProvider
// and Protector contracts. The concrete client lives behind the exoclient
// package, which wires configuration, transport, authentication, and the
// invocation engine together. Most consumers should import exoclient to
// construct a client and then call Invoke through the interfaces exposed here.
//
// Getting a client
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
//	  cli, err := exoclient.New(ctx, &exo.Config{
//	    TenantID:     "contoso.onmicrosoft.com",
//	    ClientID:     "app-id",
//	    ClientSecret: "app-secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  res, err := cli.Invoke(ctx, "Get-Mailbox", exo.Parameters{
//	    "ResultSize": exo.Scalar("Unlimited"),
//	  }, &exo.InvokeOptions{MaxResults: 500, StripMetadata: true})
//	  if err != nil { log.Fatal(err) }
//	  _ = res
//	}
//
// # Parameters
//
// Parameter values are tagged variants constructed with Scalar, Struct, or
// Secret. Struct values receive the service's structured-value discriminator
// before transmission; Secret values are encrypted by the configured
// Protector and never leave the process in plaintext.
//
// # Errors
//
// Failures surface as *Error carrying a stable Code, the service-reported
// subtype, and the originating HTTP status. Helpers such as IsThrottled and
// IsTimeout make it easy to branch on common cases. Per-call ErrorAction
// selects whether a failure is returned, reported to a callback, or silently
// ends the call.
//
// # Paging and resilience
//
// Invoke pages through results until the continuation link is exhausted or
// MaxResults is reached. Throttling, signaled by status code or by the
// service's in-band throttling message, is retried with Retry-After-aware
// backoff up to the connection's (or call's) retry budget; a fresh bearer
// token is acquired before every wire request so long pulls survive token
// expiry.
package exo
