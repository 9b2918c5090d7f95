package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fathima-sithara/social-service/internal/cache"
	"github.com/fathima-sithara/social-service/internal/config"
	"github.com/fathima-sithara/social-service/internal/database"
	"github.com/fathima-sithara/social-service/internal/events"
	"github.com/fathima-sithara/social-service/internal/handlers"
	"github.com/fathima-sithara/social-service/internal/repository"
	"github.com/fathima-sithara/social-service/internal/routes"
	"github.com/fathima-sithara/social-service/internal/server"
	"github.com/fathima-sithara/social-service/internal/services"
	"github.com/fathima-sithara/social-service/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	if _, err := os.Stat(cfgPath); err != nil {
		cfgPath = ""
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.App.Env)
	defer func() {
		_ = logger.Sync()
	}()
	sugar := logger.Sugar()
	sugar.Infof("Starting social-service in %s environment on port %d", cfg.App.Env, cfg.App.Port)

	ctx := context.Background()

	var (
		users       repository.UserRepository
		posts       repository.PostRepository
		mongoClient *mongo.Client
	)
	switch cfg.Store.Driver {
	case config.StoreMemory:
		sugar.Warn("Using in-memory store. Data is lost on restart.")
		store := repository.NewMemoryStore()
		users, posts = store.Users(), store.Posts()
	default:
		connCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		var db *mongo.Database
		db, mongoClient, err = database.ConnectMongo(connCtx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout, sugar)
		if err == nil {
			users, err = repository.NewMongoUserRepo(connCtx, db, cfg.Mongo.UsersCollection, cfg.Mongo.Transactions, logger)
		}
		if err == nil {
			posts, err = repository.NewMongoPostRepo(connCtx, db, cfg.Mongo.PostsCollection, cfg.Mongo.UsersCollection)
		}
		cancel()
		if err != nil {
			sugar.Fatal(err)
		}
	}

	feedCache := cache.NewNoop()
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, sugar)
		if err != nil {
			sugar.Warn("Redis unavailable. Feed cache disabled.")
		} else {
			feedCache = cache.NewRedisFeedCache(rdb, cfg.Cache.FeedTTL)
		}
	}

	publisher := events.NewNoop()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, func(err error) {
			logger.Warn("kafka delivery failed", zap.Error(err))
		})
		sugar.Infof("Publishing domain events to %s", cfg.Kafka.Topic)
	} else {
		sugar.Warn("Kafka brokers not configured. Domain events will be skipped.")
	}

	tokens := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)
	authSvc := services.NewAuthService(users, tokens, cfg.Security.PasswordHashCost, publisher, logger)
	userSvc := services.NewUserService(users, feedCache, publisher, logger)
	postSvc := services.NewPostService(posts, users, feedCache, publisher, logger)

	h := routes.Handlers{
		Auth: handlers.NewAuthHandler(authSvc, logger, cfg.App.RequestTimeout),
		User: handlers.NewUserHandler(userSvc, logger, cfg.App.RequestTimeout),
		Post: handlers.NewPostHandler(postSvc, logger, cfg.App.RequestTimeout),
	}
	app := server.New(cfg, h, tokens, logger)

	go func() {
		listenAddr := fmt.Sprintf(":%d", cfg.App.Port)
		sugar.Infof("Server listening on %s", listenAddr)
		if err := app.Listen(listenAddr); err != nil {
			sugar.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	sugar.Info("Shutting down server...")

	ctxShut, cancelShut := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancelShut()

	if err := app.ShutdownWithContext(ctxShut); err != nil {
		sugar.Errorf("Fiber app shutdown error: %v", err)
	}
	if err := publisher.Close(); err != nil {
		sugar.Errorf("Kafka writer close error: %v", err)
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(ctxShut); err != nil {
			sugar.Errorf("MongoDB disconnect error: %v", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			sugar.Errorf("Redis client close error: %v", err)
		}
	}

	sugar.Info("Graceful shutdown complete. Goodbye!")
}
