package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/shopfront/internal/cache"
	"github.com/Skotchmaster/shopfront/internal/events"
	"github.com/Skotchmaster/shopfront/internal/httpserver"
	"github.com/Skotchmaster/shopfront/internal/payment"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/search"
	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/internal/session"
	"github.com/Skotchmaster/shopfront/internal/storage"
	"github.com/Skotchmaster/shopfront/pkg/config"
	"github.com/Skotchmaster/shopfront/pkg/cookies"
	"github.com/Skotchmaster/shopfront/pkg/db"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/middleware/metrics"
)

const (
	featuredTTL   = time.Hour
	purgeInterval = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", "shopfront")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}()

	r := repo.New(gdb)
	if err := r.Migrate(initCtx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var (
		tokenStore session.TokenStore
		featured   service.FeaturedCache = cache.Nop{}
		ready                            = []func(context.Context) error{r.Ping}
	)
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("redis url: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(initCtx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		tokenStore = session.NewRedisStore(rdb)
		featured = cache.NewFeatured(rdb, featuredTTL)
		ready = append(ready, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	} else {
		gs := session.NewGormStore(gdb)
		tokenStore = gs
		go purgeExpired(ctx, logger, gs)
		logger.Warn("redis_not_configured", "fallback", "refresh tokens in database, featured cache off")
	}

	issuer := session.NewIssuer(tokenStore, session.Config{
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}()

	var index service.SearchIndex
	if cfg.Search.URL != "" {
		sc, err := search.NewClient(initCtx, search.Config{
			URL:      cfg.Search.URL,
			User:     cfg.Search.User,
			Password: cfg.Search.Password,
			Index:    cfg.Search.Index,
		})
		if err != nil {
			logger.Warn("search_unavailable", "error", err)
		} else {
			index = sc
		}
	}

	var images service.ImageStore = storage.Nop{}
	if cfg.Storage.Endpoint != "" {
		is, err := storage.NewImageStore(initCtx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			log.Fatalf("object storage: %v", err)
		}
		images = is
	}

	var gateway payment.Gateway = payment.Disabled{}
	if cfg.Payments.SecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.Payments.SecretKey)
	} else {
		logger.Warn("payments_not_configured")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc:     &service.AuthService{Repo: r, Issuer: issuer, Events: publisher},
			Cookies: cookies.NewPolicy(cfg.Production()),
		},
		ProductHandler: &httpserver.ProductHTTP{
			Svc: &service.CatalogService{Repo: r, Cache: featured, Images: images, Index: index, Events: publisher},
		},
		CartHandler:   &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		CouponHandler: &httpserver.CouponHTTP{Svc: &service.CouponService{Repo: r}},
		PaymentHandler: &httpserver.PaymentHTTP{
			Svc: &service.PaymentService{Repo: r, Gateway: gateway, Events: publisher, ClientURL: cfg.ClientURL},
		},
		AccessSecret: []byte(cfg.JWT.AccessSecret),
		Ready: func(ctx context.Context) error {
			for _, check := range ready {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}

	e := httpserver.New(deps, httpserver.Options{
		Logger:     logger,
		Metrics:    metrics.NewHTTP(reg),
		ClientURL:  cfg.ClientURL,
		Production: cfg.Production(),
	})
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	go func() {
		logger.Info("http_listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	logger.Info("shutdown_complete")
}

func purgeExpired(ctx context.Context, l *slog.Logger, s *session.GormStore) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				l.Warn("purge_refresh_tokens_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("purged_refresh_tokens", "count", n)
			}
		}
	}
}
