package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"bookstore_back_end/internal/audit"
	"bookstore_back_end/internal/auth"
	"bookstore_back_end/internal/cache"
	"bookstore_back_end/internal/database"
	"bookstore_back_end/internal/events"
	"bookstore_back_end/internal/handlers"
	"bookstore_back_end/internal/invoice"
	"bookstore_back_end/internal/mailer"
	"bookstore_back_end/internal/middleware"
	"bookstore_back_end/internal/repository"
	"bookstore_back_end/internal/routes"
	"bookstore_back_end/internal/search"
	"bookstore_back_end/internal/services/account"
	"bookstore_back_end/internal/services/announcement"
	"bookstore_back_end/internal/services/cart"
	"bookstore_back_end/internal/services/catalog"
	"bookstore_back_end/internal/services/order"
	"bookstore_back_end/internal/services/review"
	"bookstore_back_end/internal/services/wishlist"
	"bookstore_back_end/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context, rt runtime) error {
	cfg, log := rt.cfg, rt.log
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.MigrateUp(cfg.Postgres.DSN()); err != nil {
		return err
	}
	conns, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer conns.Close()

	// Dépôts
	users := repository.NewUserRepository(conns.Postgres)
	books := repository.NewBookRepository(conns.Postgres)
	orders := repository.NewOrderRepository(conns.Postgres)

	// Infrastructure
	store := storage.NewStore(conns.MinIO, cfg.MinIO.Bucket, cfg.MinIO.Endpoint, cfg.MinIO.UseSSL)
	mail := mailer.New(cfg.SMTP, cfg.Invoice.CompanyName, log)
	carts := cache.NewCartStore(conns.Redis, log)

	var index catalog.SearchIndex
	if conns.Elastic != nil {
		index = search.NewBookIndex(conns.Elastic, cfg.Elastic.Index)
	}

	var (
		history  handlers.HistoryReader
		recorder middleware.AuditRecorder
	)
	if conns.Scylla != nil {
		auditStore := audit.NewStore(conns.Scylla)
		if err := auditStore.EnsureSchema(ctx); err != nil {
			return err
		}
		history, recorder = auditStore, auditStore
	}

	// Abonnés post-commit : l'événement Kafka part avant la facture et l'email.
	var subscribers []order.Subscriber
	if len(cfg.Kafka.Brokers) > 0 {
		codec, err := events.NewCodec()
		if err != nil {
			return err
		}
		publisher, err := events.NewPublisher(cfg.Kafka, codec, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		subscribers = append(subscribers, publisher)
	} else {
		log.Warn("⚠️ Kafka non configuré, événements de commande non publiés")
	}
	subscribers = append(subscribers,
		order.NewNotifier(invoice.NewRenderer(cfg.Invoice.CompanyName, cfg.Invoice.Timeout), store, mail, log))
	dispatcher := order.NewPostCommitDispatcher(cfg.Notify.Timeout, log, subscribers...)

	// Services
	orderSvc := order.NewService(orders, books, users, dispatcher, store, log)
	catalogSvc := catalog.NewService(books, repository.NewAuthorRepository(conns.Postgres),
		repository.NewGenreRepository(conns.Postgres), index, store, log)
	cartSvc := cart.NewService(carts, books, orderSvc, log)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.App.Name)
	blacklist := cache.NewTokenBlacklist(conns.Redis)
	accountSvc := account.NewService(users, tokens, blacklist, mail, log)
	reviewSvc := review.NewService(repository.NewReviewRepository(conns.Postgres), books, users)
	wishlistSvc := wishlist.NewService(repository.NewWishlistRepository(conns.Postgres), books)
	announcementSvc := announcement.NewService(repository.NewAnnouncementRepository(conns.Postgres))

	// OAuth
	sessionSecret := cfg.Auth.SessionSecret
	if sessionSecret == "" {
		sessionSecret = cfg.Auth.JWTSecret
	}
	oauthEnabled := auth.SetupOAuth(cfg.OAuth, cfg.App.BaseURL, sessionSecret, cfg.App.IsProduction(), log) > 0

	// HTTP
	limiter := cache.NewRateLimiter(conns.Redis)
	guards := routes.Guards{
		Auth:          middleware.AuthRequired(tokens, blacklist, log),
		APILimit:      middleware.RateLimit(limiter, "api", middleware.APIMaxRequests, middleware.APIWindow, log),
		RegisterLimit: middleware.RateLimit(limiter, "register", middleware.RegisterMaxAttempts, middleware.RegisterWindow, log),
		LoginLimit:    middleware.LoginRateLimit(cache.NewLoginGuard(conns.Redis, middleware.LoginMaxAttempts, middleware.LoginCooldown), log),
		Audit: func(resource string) gin.HandlerFunc {
			return middleware.Audit(recorder, resource, log)
		},
		OAuthEnabled: oauthEnabled,
	}
	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(accountSvc, log),
		Orders:    handlers.NewOrderHandler(orderSvc, history, log),
		Catalog:   handlers.NewCatalogHandler(catalogSvc, log),
		Cart:      handlers.NewCartHandler(cartSvc, carts, cfg.HTTP.AllowedOrigins, log),
		Community: handlers.NewCommunityHandler(reviewSvc, wishlistSvc, announcementSvc, log),
		Health: handlers.Health(map[string]handlers.Pinger{
			"postgres": conns.Postgres.PingContext,
			"redis":    func(ctx context.Context) error { return conns.Redis.Ping(ctx).Err() },
		}),
	}

	engine := routes.NewEngine(cfg.HTTP, log)
	routes.Register(engine, h, guards)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Serveur lancé", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serveur http")
	case <-ctx.Done():
	}

	log.Info("🛑 Arrêt du serveur")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "arrêt serveur http")
}
