// Package simplyrestful provides types, interfaces, and helpers for working
// with SimplyRESTful APIs: HATEOAS-style JSON APIs whose resources carry a self
// link and whose collections are paginated envelopes.
//
// # Overview
//
// The simplyrestful package defines the resource model (Link, Resource,
// Collection), the ResourceClient interface, the pluggable Transport, and the
// error taxonomy. A concrete implementation of ResourceClient is provided by
// the srclient package, which wires configuration, transport and API
// discovery. Most consumers should import srclient to construct a client.
//
// Getting a client
//
//	type Widget struct {
//	  simplyrestful.Resource
//	  Name string `json:"name"`
//	}
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := srclient.New[*Widget](&simplyrestful.Config{
//	    BaseAPIURI:        "https://api.example.com/",
//	    ResourceMediaType: "application/x.widget-v1+json",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  widgets, err := cli.List(ctx, &simplyrestful.ListOptions{PageSize: 50})
//	  if err != nil { log.Fatal(err) }
//	  _ = widgets
//	}
//
// # Discovery
//
// The client does not need to know where the resource lives. On first use it
// fetches the service document at BaseAPIURI, follows describedBy.href to the
// OpenAPI description and uses the first path whose GET operation returns the
// resource media type. SetResourceURITemplate skips discovery entirely.
//
// # Errors
//
// HTTP failures are represented by WebApplicationError. Match them with
// errors.Is against the family kinds (ErrRedirection, ErrClientError,
// ErrServerError) or the named ones (ErrNotFound, ErrBadRequest, ...).
// Helpers such as IsNotFound and IsClientError cover the common cases.
//
// # Interceptors and batches
//
// The default transport runs an InterceptorChain around every exchange:
// logging, static headers, metrics, circuit breaking and OpenTelemetry
// tracing are provided. BatchExecutor runs many operations on one client
// concurrently.
package simplyrestful
