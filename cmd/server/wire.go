//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/config"
	"github.com/ICPWorkOfficial/ICPWork-sub002/internal/hub"
)

// InitializeApp creates a new application.
func InitializeApp() (*App, func(), error) {
	wire.Build(
		config.Load,
		// Infrastructure Providers
		wire.NewSet(
			provideContext,
			provideLogger,
			provideClock,
			provideHubOptions,
		),
		// Collaborator Providers
		wire.NewSet(
			provideMessageStore,
			provideIdentityVerifier,
		),
		// Hub & Handler Providers
		hub.NewHub,
		provideHandler,
		// App Provider
		wire.NewSet(
			wire.Struct(new(App), "*"),
		),
	)
	return nil, nil, nil
}
