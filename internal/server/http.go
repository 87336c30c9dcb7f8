package server

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"strconv"

	"smartshop/checkout-service/internal/auth"
	"smartshop/checkout-service/internal/conf"
	"smartshop/checkout-service/internal/errors"
	"smartshop/checkout-service/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Bootstrap, svc *service.CheckoutService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			identityMiddleware(),
		),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server.Http.Addr != "" {
		opts = append(opts, http.Address(c.Server.Http.Addr))
	}
	srv := http.NewServer(opts...)

	registerRoutes(srv, svc)

	// 注册健康检查端点
	srv.Route("/").GET("/health", func(ctx http.Context) error {
		return ctx.Result(200, map[string]string{"status": "ok", "service": "checkout-service"})
	})

	return srv
}

// identityMiddleware 从上游网关注入的 Header 提取用户身份写入 context。
// X-User-Id / X-User-Role 由认证网关填充, 本服务只消费不签发。
func identityMiddleware() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if tr, ok := transport.FromServerContext(ctx); ok {
				header := tr.RequestHeader()
				if raw := header.Get("X-User-Id"); raw != "" {
					if uid, err := strconv.ParseUint(raw, 10, 64); err == nil {
						role := auth.Role(header.Get("X-User-Role"))
						if role == "" {
							role = auth.RoleCustomer
						}
						ctx = auth.WithUser(ctx, uid, role)
					}
				}
			}
			return handler(ctx, req)
		}
	}
}

func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	status := stdhttp.StatusInternalServerError
	response := map[string]interface{}{
		"code":    status,
		"message": "internal server error",
	}

	if se != nil {
		status = mapErrorStatus(int(se.Code), se.Reason)
		response["code"] = se.Code
		response["reason"] = se.Reason
		response["message"] = se.Message
		if len(se.Metadata) > 0 {
			response["metadata"] = se.Metadata
		}
	} else if err != nil {
		response["message"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func mapErrorStatus(code int, reason string) int {
	if code >= 100 && code < 600 {
		return code
	}
	switch reason {
	case errors.ReasonOrderNotFound, errors.ReasonTxnNotFound:
		return stdhttp.StatusNotFound
	case errors.ReasonPermissionDenied:
		return stdhttp.StatusForbidden
	case errors.ReasonInvalidTransition, errors.ReasonOrderNotPayable, errors.ReasonTxnNotRefundable:
		return stdhttp.StatusConflict
	case errors.ReasonGatewayUnavailable:
		return stdhttp.StatusBadGateway
	}
	if code >= 140000 && code < 150000 {
		return stdhttp.StatusBadRequest
	}
	return stdhttp.StatusInternalServerError
}
