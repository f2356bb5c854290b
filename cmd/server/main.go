package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/DongSeo/platform/internal/auth"
	"github.com/DongSeo/platform/internal/cart"
	"github.com/DongSeo/platform/internal/catalog"
	"github.com/DongSeo/platform/internal/config"
	"github.com/DongSeo/platform/internal/db"
	"github.com/DongSeo/platform/internal/estimate"
	"github.com/DongSeo/platform/internal/migrations"
	"github.com/DongSeo/platform/internal/observability"
	"github.com/DongSeo/platform/internal/pricing"
	"github.com/DongSeo/platform/internal/quotepdf"
	"github.com/DongSeo/platform/internal/seed"
)

const pingMessage = "Chenu Estimate System is Running!"

type server struct {
	catalog   *catalog.Store
	estimates *estimate.Service
	carts     cart.Store
	auth      *auth.Service
	pdf       *quotepdf.Exporter
	logger    *zap.Logger

	companyName      string
	defaultCompanyID int64
	now              func() time.Time
	fonts            singleflight.Group
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	database, err := db.OpenContext(ctx, cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := migrations.UpContext(ctx, database); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}
	version, err := migrations.Version(database)
	if err != nil {
		return err
	}
	logger.Info("database ready", zap.String("path", cfg.DBPath), zap.Int64("schema_version", version))

	stats, err := seed.Run(database, seed.Config{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		DemoCatalog:   cfg.SeedDemoCatalog,
	})
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	logger.Info("seed complete", zap.Int("inserts", stats.Inserts))

	classifier, err := pricing.LoadClassifierFile(cfg.RulesetTablePath)
	if err != nil {
		return fmt.Errorf("load ruleset table: %w", err)
	}
	if classifier.Len() > 0 {
		logger.Info("ruleset table loaded", zap.String("path", cfg.RulesetTablePath), zap.Int("products", classifier.Len()))
	}

	carts, err := newCartStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := newServer(database, cfg, classifier, carts, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func newCartStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (cart.Store, error) {
	if cfg.RedisAddr == "" {
		logger.Info("cart store", zap.String("backend", "memory"), zap.Duration("ttl", cfg.CartTTL))
		return cart.NewMemoryStore(cfg.CartTTL), nil
	}
	client, err := cart.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("cart store", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CartTTL))
	return cart.NewRedisStore(client, cfg.CartTTL), nil
}

func newServer(database *sql.DB, cfg config.Config, classifier *pricing.Classifier, carts cart.Store, logger *zap.Logger) *server {
	store := catalog.NewStore(database)
	return &server{
		catalog:   store,
		estimates: estimate.NewService(store, estimate.WithClassifier(classifier), estimate.WithLogger(logger)),
		carts:     carts,
		auth:      auth.NewService(database, cfg.Secret(), cfg.JWTExpiration),
		pdf: quotepdf.NewExporter(quotepdf.FontResolver{
			Path:       cfg.PDFFontPath,
			SystemPath: quotepdf.SystemFontPath,
			URL:        cfg.PDFFontURL,
		}, logger),
		logger:           logger,
		companyName:      cfg.PDFCompanyName,
		defaultCompanyID: cfg.DefaultCompanyID,
		now:              time.Now,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(s.logger))
	r.Use(observability.Recovery(s.logger))
	r.Use(s.auth.Authenticate)

	r.Get("/NanumGothic-normal.js", s.handleFontScript)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Route("/estimates", func(r chi.Router) {
			r.Get("/ping", s.handlePing)
			r.Post("/calculate", s.handleCalculate)
			r.Post("/quote", s.handleQuote)
			r.Post("/pdf", s.handleDocumentPDF)
		})

		r.Get("/categories", s.handleCategories)
		r.Get("/subcategories", s.handleSubCategories)
		r.Get("/products", s.handleProducts)
		r.Get("/products/{id}/selectable-options", s.handleSelectableOptions)
		r.Get("/options", s.handleOptions)
		r.Get("/variants", s.handleVariants)
		r.Get("/colors", s.handleColors)

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", s.handleCreateCart)
			r.Get("/{cartID}", s.handleGetCart)
			r.Delete("/{cartID}", s.handleClearCart)
			r.Post("/{cartID}/lines", s.handleAddLine)
			r.Delete("/{cartID}/lines/{lineID}", s.handleRemoveLine)
			r.Patch("/{cartID}/lines/{lineID}", s.handleUpdateLine)
			r.Get("/{cartID}/pdf", s.handleCartPDF)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/companies", s.handleAdminCompanies)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))
				r.Post("/companies", s.handleAdminCreateCompany)
				r.Post("/categories", s.handleAdminCreateCategory)
				r.Get("/products", s.handleAdminSearchProducts)
				r.Post("/products", s.handleAdminCreateProduct)
				r.Patch("/products/{id}", s.handleAdminUpdateProduct)
				r.Delete("/products/{id}", s.handleAdminDeleteProduct)
				r.Patch("/variants/{id}", s.handleAdminUpdateVariant)
				r.Delete("/variants/{id}", s.handleAdminDeleteVariant)
			})
		})
	})

	return r
}
