package cmd

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/soko-platform/ms-go-settlement/app/controller"
	"github.com/soko-platform/ms-go-settlement/app/factory"
	"github.com/soko-platform/ms-go-settlement/app/provider"
	"github.com/soko-platform/ms-go-settlement/app/repository"
	"github.com/soko-platform/ms-go-settlement/app/service"
	"github.com/soko-platform/ms-go-settlement/app/types"
	"github.com/soko-platform/ms-go-settlement/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for payment initiation, webhooks, credits, and the admin surface.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	c, cleanup := mustCreateContainer()
	defer cleanup()

	paymentController := controller.NewPaymentController(c.payments, factory.NewModuleLogger("payment-controller"))
	creditController := controller.NewCreditController(c.wallets, factory.NewModuleLogger("credit-controller"))
	adminController := controller.NewAdminController(c.admin, factory.NewModuleLogger("admin-controller"))

	e := setupHTTPServer(c.cfg, paymentController, creditController, adminController)

	go func() {
		httpAddr := net.JoinHostPort(c.cfg.HTTP.Host, c.cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	cfg *config.Config,
	paymentController *controller.PaymentController,
	creditController *controller.CreditController,
	adminController *controller.AdminController,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.GET("/health", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, types.HealthResponse{Status: "ok"})
	})

	// Webhooks authenticate per provider (signatures, references), not per
	// account.
	webhooks := e.Group("/payments/webhook")
	webhooks.POST("/stripe", paymentController.StripeWebhook)
	webhooks.POST("/mtn", paymentController.MTNWebhook)
	webhooks.POST("/orange", paymentController.OrangeWebhook)

	payments := e.Group("/payments", requireAccountID())
	payments.POST("/init", paymentController.InitiatePayment)
	payments.GET("/:id/status", paymentController.GetPaymentStatus)

	credits := e.Group("/credits", requireAccountID())
	credits.GET("/balance", creditController.GetBalance)
	credits.GET("/transactions", creditController.ListTransactions)
	credits.POST("/spend", creditController.SpendCredits)

	admin := e.Group("/admin", requireAdminKey(cfg.App.AdminAPIKey))
	admin.GET("/payments", adminController.ListIntents)
	admin.GET("/payments/export", adminController.ExportIntents)
	admin.GET("/payments/revenue", adminController.Revenue)
	admin.GET("/payments/stuck", adminController.StuckIntents)
	admin.POST("/payments/:id/refund", adminController.RefundIntent)
	admin.POST("/payments/:id/verify", adminController.VerifyIntent)
	admin.POST("/payments/:id/cancel", adminController.CancelIntent)
	admin.POST("/credits/adjust", adminController.AdjustCredits)

	return e
}

// requireAccountID trusts the gateway-injected account header; the gateway
// strips any client-supplied value before it reaches this service.
func requireAccountID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			accountID := strings.TrimSpace(ctx.Request().Header.Get(types.AccountIDHeader))
			if accountID == "" {
				return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: types.CodeInvalidRequest})
			}
			return next(ctx)
		}
	}
}

func requireAdminKey(adminKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			provided := strings.TrimSpace(ctx.Request().Header.Get("X-Admin-Key"))
			if adminKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
				return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: types.CodeInvalidRequest})
			}
			return next(ctx)
		}
	}
}

type container struct {
	cfg      *config.Config
	payments *service.PaymentService
	wallets  *service.WalletService
	admin    *service.AdminService
	jobs     *service.JobsService
}

func mustCreateContainer() (*container, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	intentRepo := repository.NewPaymentIntentRepository(db)
	eventRepo := repository.NewPaymentEventRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	registry := provider.NewRegistry(
		provider.NewMockProvider(),
		provider.NewStripeProvider(provider.StripeConfig{
			SecretKey:                 cfg.Stripe.SecretKey,
			WebhookSecret:             cfg.Stripe.WebhookSecret,
			SuccessURL:                cfg.Stripe.SuccessURL,
			CancelURL:                 cfg.Stripe.CancelURL,
			SignatureToleranceSeconds: cfg.Stripe.SignatureToleranceSeconds,
			HTTPTimeout:               cfg.Stripe.HTTPTimeout,
		}),
		provider.NewMTNProvider(provider.MTNConfig{
			BaseURL:         cfg.MTN.BaseURL,
			SubscriptionKey: cfg.MTN.SubscriptionKey,
			APIUser:         cfg.MTN.APIUser,
			APIKey:          cfg.MTN.APIKey,
			TargetEnv:       cfg.MTN.TargetEnv,
			CallbackURL:     cfg.MTN.CallbackURL,
			HTTPTimeout:     cfg.MTN.HTTPTimeout,
		}),
		provider.NewOrangeProvider(provider.OrangeConfig{
			BaseURL:      cfg.Orange.BaseURL,
			ClientID:     cfg.Orange.ClientID,
			ClientSecret: cfg.Orange.ClientSecret,
			MerchantKey:  cfg.Orange.MerchantKey,
			ReturnURL:    cfg.Orange.ReturnURL,
			CancelURL:    cfg.Orange.CancelURL,
			NotifURL:     cfg.Orange.NotifURL,
			HTTPTimeout:  cfg.Orange.HTTPTimeout,
		}),
	)

	catalog := service.NewRepoCatalog(catalogRepo)
	var alerter service.Alerter = service.NewLogAlerter(factory.NewModuleLogger("alerts"))
	if cfg.App.AlertWebhookURL != "" {
		alerter = service.NewWebhookAlerter(cfg.App.AlertWebhookURL, factory.NewModuleLogger("alerts"))
	}
	fulfillmentService := service.NewFulfillmentService(fulfillmentRepo, factory.NewModuleLogger("fulfillment-service"))
	paymentService := service.NewPaymentService(
		intentRepo,
		eventRepo,
		catalog,
		registry,
		fulfillmentService,
		alerter,
		factory.NewModuleLogger("payment-service"),
	)
	walletService := service.NewWalletService(walletRepo, factory.NewModuleLogger("wallet-service"))
	jobsService := service.NewJobsService(
		intentRepo,
		subscriptionRepo,
		paymentService,
		alerter,
		cfg.Payments,
		factory.NewModuleLogger("jobs-service"),
	)
	adminService := service.NewAdminService(
		intentRepo,
		auditRepo,
		paymentService,
		walletService,
		registry,
		cfg.Payments,
		factory.NewModuleLogger("admin-service"),
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return &container{
		cfg:      cfg,
		payments: paymentService,
		wallets:  walletService,
		admin:    adminService,
		jobs:     jobsService,
	}, cleanup
}
