// Package srclient provides the entry point for constructing SimplyRESTful
// resource clients that implement the simplyrestful.ResourceClient interface.
//
// A client handles a single resource type, identified by its media type. On
// first use it discovers where that resource lives: it reads the service
// document at the base API URI, follows its describedBy link to the OpenAPI
// description and picks the first path whose GET operation returns the
// resource media type.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
//	  "github.com/fivetwenty-io/simplyrestful-client/pkg/srclient"
//	)
//
//	type Widget struct {
//	  simplyrestful.Resource
//	  Name string `json:"name"`
//	}
//
//	func example() {
//	  ctx := context.Background()
//
//	  widgets, err := srclient.New[*Widget](&simplyrestful.Config{
//	    BaseAPIURI:        "https://api.example.com/",
//	    ResourceMediaType: "application/x.widget-v1+json",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  location, err := widgets.Create(ctx, &Widget{Name: "first"}, nil)
//	  if err != nil { log.Fatal(err) }
//
//	  widget, err := widgets.Read(ctx, location, nil)
//	  if err != nil { log.Fatal(err) }
//
//	  widget.Name = "renamed"
//	  if err := widgets.Update(ctx, widget, nil); err != nil { log.Fatal(err) }
//
//	  page, err := widgets.List(ctx, &simplyrestful.ListOptions{PageSize: 10})
//	  if err != nil { log.Fatal(err) }
//	  log.Printf("%d of %d widgets", len(page), widgets.TotalAmountOfLastRetrievedCollection())
//	}
//
// Relative base URIs
//
// The base API URI may be relative. Everything the client derives from it,
// including the discovered template, then stays relative, and the default
// transport resolves it against Config.ServerURL. When the base URI is
// absolute and no ServerURL is set, its origin is used.
//
// Errors
//
// HTTP failures are reported as *simplyrestful.WebApplicationError. Match
// them with errors.Is against the taxonomy kinds:
//
//	_, err := widgets.ReadWithUUID(ctx, id, nil)
//	if errors.Is(err, simplyrestful.ErrNotFound) {
//	  // ...
//	}
//
// See the simplyrestful package for the full taxonomy and for interceptors,
// batch operations and logging adapters.
package srclient
