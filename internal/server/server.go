package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/tobipay/bundlepay/config"
	"github.com/tobipay/bundlepay/internal/gateway"
	"github.com/tobipay/bundlepay/internal/handlers"
	"github.com/tobipay/bundlepay/internal/middleware"
	"github.com/tobipay/bundlepay/internal/remote"
	"github.com/tobipay/bundlepay/internal/repository"
	"github.com/tobipay/bundlepay/internal/services"
	"gorm.io/gorm"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	registry, err := gateway.NewRegistry(
		gateway.NewBankAdapter(cfg.BankAPIURL),
		gateway.NewCardAdapter(cfg.CardAPIURL),
		gateway.NewWalletAdapter(cfg.WalletAPIURL),
	)
	if err != nil {
		return fmt.Errorf("failed to build gateway registry: %v", err)
	}

	bundleHandler, limitHandler := buildHandlers(cfg, db, registry, logger)

	r := gin.Default()

	setupRoutes(r, db, bundleHandler, limitHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func buildHandlers(cfg *config.Config, db *gorm.DB, registry *gateway.Registry, logger *slog.Logger) (*handlers.BundleHandler, *handlers.LimitHandler) {
	bundleStore := repository.NewBundleStore(db)
	packageStore := repository.NewPackageStore(db)
	paymentStore := repository.NewPaymentStore(db)
	pgStore := repository.NewPGStore(db)
	limitStore := repository.NewLimitStore(db)

	userClient := remote.NewUserClient(cfg.UserAPIURL)
	itemClient := remote.NewItemClient(cfg.ItemAPIURL)

	limitService := services.NewLimitService(bundleStore, packageStore, paymentStore, limitStore, logger)
	bundleService := services.NewBundleService(
		bundleStore, packageStore, paymentStore, pgStore,
		limitService, registry, userClient, itemClient, logger,
	)

	return handlers.NewBundleHandler(bundleService), handlers.NewLimitHandler(limitService)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, bundleHandler *handlers.BundleHandler, limitHandler *handlers.LimitHandler) {
	r.Use(middleware.DatabaseMiddleware(db))

	public := r.Group("/v1")
	{
		pgPublic := public.Group("/pgs")
		{
			pgPublic.GET("", handlers.ListPGs)
			pgPublic.GET("/codes", handlers.ListPGCodes)
			pgPublic.GET("/:id/limits", handlers.GetLimitCond)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		bundles := protected.Group("/bundles")
		{
			bundles.POST("", bundleHandler.CreateBundle)
			bundles.GET("/:id", bundleHandler.GetBundle)
			bundles.POST("/items", bundleHandler.AddItem)
			bundles.POST("/:id/payments", bundleHandler.AddPayment)
			bundles.POST("/:id/cancel", bundleHandler.CancelBundle)
		}

		limits := protected.Group("/limits")
		{
			limits.POST("/check", limitHandler.CheckLimits)
		}

		pgAdmin := protected.Group("/pgs")
		{
			pgAdmin.POST("", handlers.CreatePG)
			pgAdmin.POST("/codes", handlers.CreatePGCode)
			pgAdmin.PUT("/:id/limits", handlers.UpsertLimitCond)
		}
	}
}
