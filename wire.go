//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"hbbank/config"
)

func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		NewLogger,
		NewStorage,
		NewTracerProvider,
		NewStore,
		NewRouter,
		NewApp,
	)

	return &App{}, nil, nil
}
