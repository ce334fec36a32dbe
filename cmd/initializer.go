package main

import (
	"context"

	firebase "firebase.google.com/go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"renTrentoBack/internal/config"
	"renTrentoBack/internal/events"
	"renTrentoBack/internal/handlers"
	"renTrentoBack/internal/lock"
	"renTrentoBack/internal/repositories"
	"renTrentoBack/internal/repositories/memstore"
	"renTrentoBack/internal/repositories/mongostore"
	"renTrentoBack/internal/repositories/sqlstore"
	"renTrentoBack/internal/services"
	"renTrentoBack/utils"
)

type application struct {
	cfg    config.Config
	logger *logrus.Logger

	store      repositories.Store
	redis      *redis.Client
	tokens     *utils.Manager
	hub        *events.Hub
	dispatcher *events.Dispatcher

	rentalService *services.RentalService

	authHandler     *handlers.AuthHandler
	userHandler     *handlers.UserHandler
	productHandler  *handlers.ProductHandler
	rentalHandler   *handlers.RentalHandler
	categoryHandler *handlers.CategoryHandler
}

func initializeApp(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*application, error) {
	app := &application{cfg: cfg, logger: logger}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.store = store

	tokens, err := utils.NewManager(cfg.Auth.Secret)
	if err != nil {
		return nil, err
	}
	app.tokens = tokens

	var locker lock.Locker = lock.NewLocal()
	if cfg.Redis.Addr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			return nil, errors.Wrap(err, "redis ping")
		}
		locker = lock.NewRedis(app.redis, cfg.Redis.LockTTL, logger)
		logger.WithField("addr", cfg.Redis.Addr).Info("using redis booking locks")
	}

	app.hub = events.NewHub(logger)
	var push events.Notifier
	if cfg.Firebase.CredentialsFile != "" {
		fb, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		if err != nil {
			return nil, errors.Wrap(err, "firebase app")
		}
		client, err := fb.Messaging(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "firebase messaging")
		}
		push = events.NewFCMNotifier(client, store.Users(), logger)
		logger.Info("push notifications enabled")
	}
	app.dispatcher = events.NewDispatcher(app.hub, push, logger)

	var images services.ImageUploader
	if cfg.Storage.Bucket != "" {
		imageStore, err := utils.NewImageStore(utils.S3Config{
			Endpoint:      cfg.Storage.Endpoint,
			Region:        cfg.Storage.Region,
			Bucket:        cfg.Storage.Bucket,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		images = imageStore
	}

	timeout := cfg.Server.RequestTimeout
	userService := services.NewUserService(store, tokens, cfg.Auth.TokenTTL)
	app.rentalService = services.NewRentalService(store, locker, app.dispatcher, logger)

	app.authHandler = &handlers.AuthHandler{Service: userService, Logger: logger, Timeout: timeout}
	app.userHandler = &handlers.UserHandler{Service: userService, Logger: logger, Timeout: timeout}
	app.productHandler = &handlers.ProductHandler{Service: services.NewProductService(store, images), Logger: logger, Timeout: timeout}
	app.rentalHandler = &handlers.RentalHandler{Service: app.rentalService, Logger: logger, Timeout: timeout}
	app.categoryHandler = &handlers.CategoryHandler{Service: services.NewCategoryService(store), Logger: logger, Timeout: timeout}

	return app, nil
}

func openStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (repositories.Store, error) {
	logger = logger.WithField("driver", cfg.Database.Driver)
	switch cfg.Database.Driver {
	case sqlstore.DriverMySQL, sqlstore.DriverPostgres:
		if cfg.Database.AutoMigrate {
			if err := sqlstore.Migrate(cfg.Database.Driver, cfg.Database.URL, false); err != nil {
				return nil, err
			}
			logger.Info("migrations applied")
		}
		store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to database")
		return store, nil
	case "mongo":
		store, err := mongostore.Open(ctx, cfg.Database.URL, cfg.Database.Name)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		logger.Info("connected to mongo")
		return store, nil
	case "memory":
		logger.Warn("using the in-memory store, data is lost on restart")
		return memstore.New(), nil
	default:
		return nil, errors.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
