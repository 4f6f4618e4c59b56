// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/uniclass/pkg/api" //nolint:depguard
	"github.com/ssargent/uniclass/pkg/storage"
)

// StoreOpener opens the persistent catalog store in a directory.
type StoreOpener func(dir string) (*storage.Store, error)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	openStore     StoreOpener
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory: api.NewServerFactory(),
		openStore:     storage.Open,
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// OpenStore opens the catalog store in dir.
func (c *Container) OpenStore(dir string) (*storage.Store, error) {
	return c.openStore(dir)
}

// SetStoreOpener allows overriding how stores are opened (for testing)
func (c *Container) SetStoreOpener(open StoreOpener) {
	c.openStore = open
}
