//go:build wireinject
// +build wireinject

package main

import (
	"os"

	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/conf"
	"smartshop/checkout-service/internal/data"
	"smartshop/checkout-service/internal/gateway"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// CronApp Cron 应用结构
type CronApp struct {
	paymentUsecase *biz.PaymentUsecase
}

// wireApp 初始化应用
func wireApp(*conf.Bootstrap) (*CronApp, func(), error) {
	panic(wire.Build(
		newLogger,

		// Data 层
		data.ProviderSet,

		// 网关适配器
		gateway.ProviderSet,

		// Biz 层
		biz.ProviderSet,

		// App 结构
		wire.Struct(new(CronApp), "*"),
	))
}

// newLogger 创建 logger
func newLogger() log.Logger {
	return log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "checkout-cron",
	)
}
