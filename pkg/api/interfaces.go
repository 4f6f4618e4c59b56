// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/uniclass/pkg/catalog"
)

// CatalogProvider supplies the catalog served by the API. catalog.Shared
// satisfies it, loading the catalog on first use.
type CatalogProvider interface {
	Get() (*catalog.Catalog, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled or the listener fails
	StartServer(ctx context.Context, catalogs CatalogProvider, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
