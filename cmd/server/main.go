package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"addonshub-go/internal/addons"
	"addonshub-go/internal/config"
	"addonshub-go/internal/constants"
	addonsapi "addonshub-go/internal/handlers/addons"
	"addonshub-go/internal/i18n"
	"addonshub-go/internal/logging"
	"addonshub-go/internal/modules"
	tracing "addonshub-go/internal/monitoring/tracing"
	"addonshub-go/internal/secrets"
	srv "addonshub-go/internal/server"
	"addonshub-go/internal/session"
	"addonshub-go/internal/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg := config.LoadWithFile(*configPath)
	if *debug {
		cfg.Debug = true
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}
	log.Infof("Starting AddonsHub %s (config: %s)", version.Version, *configPath)

	traceShutdown, err := tracing.Init(context.Background())
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing")
	}
	if traceShutdown != nil {
		defer func() {
			if err := traceShutdown(context.Background()); err != nil {
				log.WithError(err).Warn("failed to shutdown tracing")
			}
		}()
	}

	cfgMgr := config.GetManager()
	cfgMgr.StartWatcher()
	defer cfgMgr.Stop()

	if cfg.CookieKey == "" {
		log.Fatal("cookie_key must be configured; credentials cannot be persisted without it")
	}
	box, err := secrets.NewBox(cfg.CookieKey)
	if err != nil {
		log.WithError(err).Fatal("invalid cookie key")
	}

	// session store is optional; without redis only remember-me logins
	// survive a request
	var store session.Store
	var redisStore *session.RedisStore
	if cfg.RedisAddr != "" {
		redisStore = session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix,
			time.Duration(cfg.SessionTTLHours)*time.Hour)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisStore.Health(ctx)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Redis unreachable; session-mode login disabled")
			_ = redisStore.Close()
			redisStore = nil
		} else {
			store = redisStore
			log.Info("Connected to redis session store")
		}
	}
	keeper := session.NewKeeper(box, store, time.Duration(cfg.CookieLifetimeDays)*24*time.Hour)

	catalog := buildCatalog(cfg)
	defer catalog.Close()

	market := addons.New(cfg)

	msgs := i18n.NewCatalog(cfg.DefaultLocale)
	if cfg.LocalesDir != "" {
		if err := msgs.LoadDir(cfg.LocalesDir); err != nil {
			log.WithError(err).Warn("failed to load locale catalogs")
		}
	}

	list := modules.NewListCache(cacheClient(redisStore), cfg.RedisPrefix,
		time.Duration(cfg.ModuleCacheTTLMin)*time.Minute, market)
	manager := modules.NewManager(catalog, list, market, filepath.Join(cfg.ModulesDir, "archives"))

	handler := addonsapi.NewHandler(cfgMgr, market, keeper, manager, list, catalog, msgs)
	engine := srv.BuildEngine(cfgMgr, srv.Dependencies{
		Handler: handler,
		Catalog: catalog,
		Store:   store,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: constants.DefaultResponseHeaderTimeout,
	}

	go func() {
		log.Infof("Listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	time.Sleep(constants.ServerGracefulWait)
	ctx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("forced shutdown")
	}
	if store != nil {
		_ = store.Close()
	}
	log.Info("Stopped")
}

// cacheClient exposes the session store's redis connection for the module
// list cache; nil disables caching.
func cacheClient(s *session.RedisStore) *redis.Client {
	if s == nil {
		return nil
	}
	return s.Client()
}

// buildCatalog prefers PostgreSQL and falls back to the file catalog so the
// service still comes up without a database.
func buildCatalog(cfg *config.Config) modules.Catalog {
	if cfg.PostgresDSN != "" {
		catalog, err := modules.NewPostgresCatalog(cfg.PostgresDSN)
		if err == nil {
			return catalog
		}
		log.WithError(err).Warn("PostgreSQL catalog unavailable; falling back to file catalog")
	}
	catalog, err := modules.NewFileCatalog(cfg.ModulesDir)
	if err != nil {
		log.WithError(err).Fatal("file catalog initialization failed")
	}
	return catalog
}
