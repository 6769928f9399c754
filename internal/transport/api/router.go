package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/api/middlewares"
)

const (
	DefaultServiceTimeout = 3 * time.Second
	// PaymentServiceTimeout ограничение запросов, которые ждут ответа платежного провайдера.
	PaymentServiceTimeout = 45 * time.Second
	SagaServiceTimeout    = 45 * time.Second
	BulkServiceTimeout    = 2 * time.Minute
)

const (
	RouteGroup            = "/api"
	OrdersRoute           = "/orders"
	ValidateOrderRoute    = "/orders/validate"
	OrderRoute            = "/orders/:id"
	OrderSummaryRoute     = "/orders/:id/summary"
	CancelOrderRoute      = "/orders/:id/cancel"
	PaymentRequestRoute   = "/payments/request"
	PaymentCheckoutRoute  = "/payments/checkout"
	PaymentApproveRoute   = "/payments/approve"
	AdminOrdersRoute      = "/admin/orders"
	AdminStatisticsRoute  = "/admin/orders/statistics"
	AdminBulkStatusRoute  = "/admin/orders/status"
	AdminOrderStatusRoute = "/admin/orders/:id/status"
	AdminCancelOrderRoute = "/admin/orders/:id/cancel"
	AdminRefundOrderRoute = "/admin/orders/:id/refund"
	HealthRoute           = "/health"
	MetricsRoute          = "/metrics"
)

type RouterArgs struct {
	Logger         *logrus.Logger
	OrderService   OrderServicer
	PaymentService PaymentServicer
	Health         HealthChecker
	Metrics        MetricsRecorder
	JWTSecretKey   []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerOnce(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	if args.Metrics != nil {
		r.Use(middlewares.Metrics(args.Metrics))
		r.GET(MetricsRoute, gin.WrapH(args.Metrics.Handler()))
	}
	r.Use(middlewares.Errors())

	r.GET(HealthRoute, healthHandler(args.Health))

	ordersHandler := NewOrdersHandler(args.OrderService)
	paymentsHandler := NewPaymentsHandler(args.PaymentService)
	adminHandler := NewAdminHandler(args.OrderService)

	api := r.Group(RouteGroup)
	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованного пользователя.
	api.POST(OrdersRoute, ordersHandler.Create)
	api.POST(ValidateOrderRoute, ordersHandler.Validate)
	api.GET(OrdersRoute, ordersHandler.Index)
	api.GET(OrderRoute, ordersHandler.Show)
	api.GET(OrderSummaryRoute, ordersHandler.Summary)
	api.POST(CancelOrderRoute, ordersHandler.Cancel)

	api.POST(PaymentRequestRoute, paymentsHandler.Request)
	api.POST(PaymentCheckoutRoute, paymentsHandler.Checkout)
	api.POST(PaymentApproveRoute, paymentsHandler.Approve)

	admin := api.Group("", middlewares.AdminRequired())
	admin.GET(AdminOrdersRoute, adminHandler.Search)
	admin.GET(AdminStatisticsRoute, adminHandler.Statistics)
	admin.POST(AdminBulkStatusRoute, adminHandler.BulkUpdateStatus)
	admin.POST(AdminOrderStatusRoute, adminHandler.UpdateStatus)
	admin.POST(AdminCancelOrderRoute, ordersHandler.Cancel)
	admin.POST(AdminRefundOrderRoute, adminHandler.Refund)
	return r, nil
}

// healthHandler GET HealthRoute. Без HealthChecker всегда отвечает ok.
func healthHandler(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				_ = c.Error(err).SetType(gin.ErrorTypePrivate)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
