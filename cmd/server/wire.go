//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/conf"
	"smartshop/checkout-service/internal/data"
	"smartshop/checkout-service/internal/gateway"
	"smartshop/checkout-service/internal/server"
	"smartshop/checkout-service/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Bootstrap, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(server.ProviderSet, data.ProviderSet, biz.ProviderSet, gateway.ProviderSet, service.ProviderSet, newApp))
}
