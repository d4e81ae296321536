package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pricecore/internal/adapters/cache"
	"pricecore/internal/adapters/httpclient"
	"pricecore/internal/adapters/memory"
	"pricecore/internal/adapters/postgres"
	"pricecore/internal/adapters/reportlog"
	"pricecore/internal/api"
	"pricecore/internal/api/handler"
	"pricecore/internal/audit"
	"pricecore/internal/config"
	"pricecore/internal/platform/db"
	httpserver "pricecore/internal/platform/http"
	"pricecore/internal/platform/metrics"
	"pricecore/internal/pricing"
	"pricecore/internal/rates"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Run wires the engine components, starts the HTTP facade and the scheduler.
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(appCfg.Logging.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (DB connect, migration, warm-up)
	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// DB pool + migrations for the engine-owned tables
	if err = db.Migrate(startupCtx, appCfg.DbServer.GetConnectionStr()); err != nil {
		logrus.WithError(err).Error("Error running migrations")
		return err
	}
	pool, err := db.CreatePoolAndPing(startupCtx, appCfg.DbServer)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to db")
		return err
	}
	defer pool.Close()
	logrus.Info("✅ Postgres connection successful")

	currencyRepo := postgres.NewCurrencyRepository(pool)
	snapshotRepo := postgres.NewSnapshotRepository(pool)

	// Active currency codes for request validation
	activeCurrencies, err := currencyRepo.ListActive(startupCtx)
	if err != nil {
		logrus.WithError(err).Error("Failed to load active currencies")
		return err
	}
	activeCodes := make(map[string]struct{}, len(activeCurrencies))
	for _, c := range activeCurrencies {
		activeCodes[c.Code] = struct{}{}
	}
	if len(activeCodes) == 0 {
		return errors.New("no active currencies configured")
	}
	logrus.Info("✅ Active currencies loaded")

	// Rate provider client
	httpTimeout := time.Duration(appCfg.RateProviderAPI.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	providerBaseURL := strings.TrimSuffix(appCfg.RateProviderAPI.BaseURL, "/")
	if appCfg.RateProviderAPI.APIKey == "" {
		return fmt.Errorf("rate provider api key is required")
	}
	provider := httpclient.NewRateProviderClient(
		&http.Client{Timeout: httpTimeout},
		fmt.Sprintf("%s/%s/latest", providerBaseURL, appCfg.RateProviderAPI.APIKey),
		appCfg.RateProviderAPI.Name,
	)

	// Resolved-rate cache in front of the snapshot table
	resolvedCache, err := cache.NewRateCache(appCfg.Rates.CacheMaxItems)
	if err != nil {
		return err
	}
	defer resolvedCache.Close()

	engineMetrics := metrics.New(prometheus.DefaultRegisterer)

	bases := appCfg.Rates.BaseCurrencies
	if len(bases) == 0 {
		bases = []string{appCfg.Pricing.CanonicalCurrency}
	}

	rateCache := rates.NewCache(
		provider,
		currencyRepo,
		time.Duration(appCfg.Rates.StaleAfterSeconds)*time.Second,
		rates.WithResolvedRateCache(resolvedCache),
		rates.WithSnapshotRepository(snapshotRepo),
		rates.WithMetrics(engineMetrics),
		rates.WithHistoryDepth(appCfg.Rates.HistoryDepth),
	)
	if err = rateCache.Warm(startupCtx, bases); err != nil {
		// A cold cache is fine, the first refresh fills it.
		logrus.WithError(err).Warn("Rate cache warm-up failed")
	}

	// Catalog and demand-signal collaborators. The storefront's catalog
	// service plugs in through these interfaces; local runs use the
	// in-memory implementations.
	catalog := memory.NewCatalogStore()
	signals := memory.NewSignalSource()

	markupEngine := pricing.NewMarkupEngine(signals, pricing.LinearDemandPolicy{
		Divisor: decimal.NewFromFloat(appCfg.Pricing.DemandDivisor),
	})
	converter := pricing.NewConverter(appCfg.Pricing.CanonicalCurrency, rateCache, currencyRepo)
	recomputeJob := pricing.NewRecomputeJob(
		catalog,
		markupEngine,
		engineMetrics,
		appCfg.Pricing.Workers,
		time.Duration(appCfg.Pricing.EntityCeilingSeconds)*time.Second,
	)

	auditor := audit.NewAuditor(catalog, reportlog.New(), engineMetrics, audit.Thresholds{
		Low:     decimal.NewFromFloat(appCfg.Audit.LowThreshold),
		High:    decimal.NewFromFloat(appCfg.Audit.HighThreshold),
		Extreme: decimal.NewFromFloat(appCfg.Audit.ExtremeThreshold),
	}, decimal.NewFromFloat(appCfg.Audit.Epsilon))

	scheduler := pricing.NewScheduler(
		recomputeJob,
		rateCache,
		bases,
		time.Duration(appCfg.Pricing.RecomputeIntervalSeconds)*time.Second,
		time.Duration(appCfg.Rates.RefreshIntervalSeconds)*time.Second,
	)
	// Ensure scheduler stops before DB pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logrus.Info("✅ Scheduler activation successful")

	// Handlers and router
	validator := rates.NewValidator(activeCodes)
	h := handler.New(validator, rateCache, converter, catalog, auditor)
	router := api.NewRouter(h)

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}
