package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tradebook/internal/config"
	"github.com/smallbiznis/tradebook/internal/customer"
	customerdomain "github.com/smallbiznis/tradebook/internal/customer/domain"
	"github.com/smallbiznis/tradebook/internal/invoice"
	invoicedomain "github.com/smallbiznis/tradebook/internal/invoice/domain"
	"github.com/smallbiznis/tradebook/internal/observability"
	obsmiddleware "github.com/smallbiznis/tradebook/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/tradebook/internal/observability/metrics"
	obstracing "github.com/smallbiznis/tradebook/internal/observability/tracing"
	"github.com/smallbiznis/tradebook/internal/providers"
	"github.com/smallbiznis/tradebook/internal/ratelimit"
	"github.com/smallbiznis/tradebook/internal/sale"
	saledomain "github.com/smallbiznis/tradebook/internal/sale/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	customer.Module,
	sale.Module,
	invoice.Module,
	providers.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	customerSvc customerdomain.Service
	saleSvc     saledomain.Service
	invoiceSvc  invoicedomain.Service
	exportLimit *ratelimit.ExportLimiter
	log         *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger `optional:"true"`
	CustomerSvc customerdomain.Service
	SaleSvc     saledomain.Service
	InvoiceSvc  invoicedomain.Service
	ExportLimit *ratelimit.ExportLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		customerSvc: p.CustomerSvc,
		saleSvc:     p.SaleSvc,
		invoiceSvc:  p.InvoiceSvc,
		exportLimit: p.ExportLimit,
		log:         p.Log,
	}
	if svc.log == nil {
		svc.log = zap.NewNop()
	}
	svc.registerAPIRoutes()
	svc.registerFallback()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Invoices --------
	api.GET("/invoices/next-number", s.NextInvoiceNumber)

	// -------- Sales --------
	api.GET("/sales", s.ListSales)
	api.POST("/sales", s.CreateSale)
	api.GET("/sales/:id", s.GetSaleByID)
	api.POST("/sales/:id/payments", s.RecordPayment)
	api.GET("/sales/:id/invoice.pdf", s.ExportRateLimit(), s.ExportInvoice)
	api.GET("/sales/:id/receipt.pdf", s.ExportRateLimit(), s.ExportReceipt)

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.GET("/customers/:id/statement.pdf", s.ExportRateLimit(), s.ExportStatement)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
