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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Skotchmaster/boutique/internal/account"
	"github.com/Skotchmaster/boutique/internal/blog"
	"github.com/Skotchmaster/boutique/internal/cart"
	"github.com/Skotchmaster/boutique/internal/catalog"
	"github.com/Skotchmaster/boutique/internal/contact"
	"github.com/Skotchmaster/boutique/internal/content"
	"github.com/Skotchmaster/boutique/internal/es"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/internal/mykafka"
	"github.com/Skotchmaster/boutique/internal/order"
	"github.com/Skotchmaster/boutique/internal/review"
	"github.com/Skotchmaster/boutique/internal/session"
	httpserver "github.com/Skotchmaster/boutique/internal/transport/http"
	"github.com/Skotchmaster/boutique/internal/upload"
	"github.com/Skotchmaster/boutique/internal/wishlist"
	"github.com/Skotchmaster/boutique/pkg/config"
	pkgdb "github.com/Skotchmaster/boutique/pkg/db"
	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/boutique/pkg/middleware/logging"
	"github.com/Skotchmaster/boutique/pkg/middleware/ratelimit"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal(err)
	}
	cfg.MustServe()

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Service: cfg.ServiceName})
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	var (
		pages       content.Store = &content.GormStore{DB: db}
		mongoClient *mongo.Client
	)
	if cfg.MongoURI != "" {
		mongoClient, err = content.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("mongo: %v", err)
		}
		ms := content.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		if err := ms.EnsureIndexes(ctx); err != nil {
			log.Fatalf("mongo indexes: %v", err)
		}
		pages = ms
		logger.Info("content_store", "backend", "mongo", "db", cfg.MongoDB)
	}

	var events mykafka.Publisher = mykafka.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		events = mykafka.NewProducer(cfg.KafkaBrokers)
		logger.Info("events_enabled", "brokers", cfg.KafkaBrokers)
	}

	images, err := upload.NewStorage(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	catalogRepo := &catalog.GormRepo{DB: db}
	catalogSvc := &catalog.CatalogService{Repo: catalogRepo, Images: images, Events: events}
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(ctx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		catalogSvc.Index = &es.Index{Client: esClient, Name: cfg.ESIndex}
		logger.Info("search_enabled", "index", cfg.ESIndex)
	}
	cancel()

	cartStore := cart.NewRedisStore(rdb, cfg.CartTTL)
	carts := cart.NewService(cartStore, catalogRepo, events)
	accounts := &account.AccountService{
		Repo:          &account.GormRepo{DB: db},
		AccessSecret:  cfg.AccessSecret(),
		RefreshSecret: cfg.RefreshSecret(),
		Events:        events,
	}

	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		Auth:     authmw.NewAuthenticator(cfg.AccessSecret(), accounts, cfg.CookieSecure),
		Sessions: session.NewResolver(cfg.CookieSecure),
		Contact:  ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Catalog:  &catalog.CatalogHTTP{Svc: catalogSvc},
		Reviews:  &review.ReviewHTTP{Svc: &review.ReviewService{DB: db}},
		Cart:     &cart.Handler{Svc: carts},
		Orders: &order.OrderHTTP{Svc: &order.OrderService{
			Repo:   &order.GormRepo{DB: db},
			Seq:    order.NewRedisSequencer(rdb),
			Carts:  carts,
			Events: events,
		}},
		Blogs:     &blog.BlogHTTP{Svc: &blog.BlogService{DB: db, Images: images}},
		Wishlist:  &wishlist.WishlistHTTP{Svc: &wishlist.WishlistService{DB: db, Events: events}},
		Content:   &content.ContentHTTP{Store: pages},
		Messages:  &contact.ContactHTTP{Svc: &contact.ContactService{DB: db}},
		Accounts:  &account.AccountHTTP{Svc: accounts, SecureCookie: cfg.CookieSecure},
		Uploads:   &upload.UploadHTTP{Store: images},
		UploadDir: cfg.UploadDir,
		Ready: map[string]httpserver.Check{
			"db":    func(ctx context.Context) error { return pkgdb.Ping(ctx, db) },
			"redis": cartStore.Ping,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := events.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis_close_error", "error", err)
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			logger.Error("mongo_close_error", "error", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
