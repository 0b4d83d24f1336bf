package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platebook/backend/config"
	"github.com/platebook/backend/internal/api"
	"github.com/platebook/backend/internal/database"
	"github.com/platebook/backend/internal/router"
	"github.com/platebook/backend/internal/server"
	"github.com/platebook/backend/internal/service"
)

func newLogger(env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if env == "development" {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func main() {
	log := newLogger(os.Getenv("ENV"))

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	db, err := database.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if cfg.MigrateOnStart {
		if err := database.RunMigrations(db, cfg.MigrationsDir, log); err != nil {
			log.WithError(err).Fatal("failed to run migrations")
		}
	}

	redisClient, err := database.NewRedisClient(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}

	ctx := context.Background()
	s3cfg, err := config.NewS3Config(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to configure S3")
	}
	if os.Getenv("S3_SETUP_BUCKET_POLICY") == "true" {
		if err := s3cfg.SetupBucketPolicy(ctx); err != nil {
			log.WithError(err).Warn("failed to apply bucket policy")
		}
	}
	images := service.NewS3ImageStore(s3cfg)

	blacklist := service.NewRedisTokenBlacklist(redisClient)
	authService := service.NewAuthService(db, cfg.JWTSecret, blacklist)
	userService := service.NewUserService(db, images, cfg.MaxImageBytes)
	recipeService := service.NewRecipeService(db, images, cfg.MaxImageBytes)
	relService := service.NewRelationshipService(db)
	shoppingService := service.NewShoppingListService(db)
	ingredientService := service.NewIngredientService(db)

	engine := router.Setup(
		log,
		api.NewAuthHandler(authService),
		api.NewUserHandler(userService, authService, relService),
		api.NewRecipeHandler(recipeService, relService, shoppingService, authService, cfg.BaseURL),
		api.NewIngredientHandler(ingredientService),
	)

	srv := server.New(cfg, engine, log)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.WithError(err).Fatal("server error")
		}
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server shutdown error")
	}
	log.Info("server stopped")
}
