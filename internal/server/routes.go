package server

import (
	"context"
	"strconv"

	"smartshop/checkout-service/internal/constants"
	"smartshop/checkout-service/internal/errors"
	"smartshop/checkout-service/internal/service"

	"github.com/go-kratos/kratos/v2/transport/http"
)

// registerRoutes 注册业务路由
func registerRoutes(srv *http.Server, svc *service.CheckoutService) {
	r := srv.Route("/api/v1")

	r.POST("/checkout", func(ctx http.Context) error {
		var req service.CheckoutRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.Checkout(c, &req)
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/orders", func(ctx http.Context) error {
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.ListMyOrders(c)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/orders/{id}", func(ctx http.Context) error {
		orderID, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.GetOrderDetail(c, orderID)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/orders/{id}/cancel", func(ctx http.Context) error {
		orderID, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		var req service.CancelOrderRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		req.OrderID = orderID
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.CancelOrder(c, &req)
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.PUT("/orders/{id}/status", func(ctx http.Context) error {
		orderID, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		var req service.UpdateOrderStatusRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		req.OrderID = orderID
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.UpdateOrderStatus(c, &req)
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/payments/{method}/create", func(ctx http.Context) error {
		var req service.CreatePaymentRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		req.Method = ctx.Vars().Get("method")
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.CreatePayment(c, &req)
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	// 网关回调: 同步跳转 (GET) 与异步通知共用同一处理逻辑
	r.GET("/payments/vnpay/return", callbackHandler(svc, constants.PaymentMethodVnpay))
	r.GET("/payments/momo/return", callbackHandler(svc, constants.PaymentMethodMomo))
	r.POST("/payments/momo/ipn", ipnHandler(svc, constants.PaymentMethodMomo))

	r.POST("/payments/refunds", func(ctx http.Context) error {
		var req service.RefundRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.RecordRefund(c, &req)
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})
}

// callbackHandler 查询串回调 (用户浏览器跳转)
func callbackHandler(svc *service.CheckoutService, method string) http.HandlerFunc {
	return func(ctx http.Context) error {
		params := make(map[string]string)
		for k, vs := range ctx.Query() {
			if len(vs) > 0 {
				params[k] = vs[0]
			}
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.HandleGatewayCallback(c, method, params)
		})
		out, err := h(ctx, params)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

// ipnHandler JSON 体回调 (网关服务端异步通知)
func ipnHandler(svc *service.CheckoutService, method string) http.HandlerFunc {
	return func(ctx http.Context) error {
		var body map[string]interface{}
		if err := ctx.Bind(&body); err != nil {
			return err
		}
		params := flattenParams(body)
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.HandleGatewayCallback(c, method, params)
		})
		out, err := h(ctx, params)
		if err != nil {
			return err
		}
		// 重复通知只需确认收到, 不回业务体
		if reply, ok := out.(*service.CallbackReply); ok && reply.Duplicate {
			return ctx.Result(204, nil)
		}
		return ctx.Result(200, out)
	}
}

// flattenParams 把 JSON 回调体还原成字符串参数表 (签名重算需要原始字面值)
func flattenParams(body map[string]interface{}) map[string]string {
	params := make(map[string]string, len(body))
	for k, v := range body {
		switch t := v.(type) {
		case string:
			params[k] = t
		case float64:
			params[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			params[k] = strconv.FormatBool(t)
		case nil:
			params[k] = ""
		}
	}
	return params
}

func pathID(ctx http.Context, name string) (uint64, error) {
	raw := ctx.Vars().Get(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Newf(errors.ErrCodeValidation, errors.ReasonValidation, "invalid %s %q", name, raw)
	}
	return id, nil
}
