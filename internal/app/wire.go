//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

// InitializeApplication builds the full application from the environment.
func InitializeApplication() *Application {
	wire.Build(provideConfig, assemble)
	return &Application{}
}
