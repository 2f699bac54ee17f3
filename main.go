package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ninebox/internal/config"
	"ninebox/internal/container"
	"ninebox/internal/errors"
	"ninebox/internal/logging"
	"ninebox/internal/migration"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// initDatabase connects and migrates the roster database
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	log.Info().Str("version", migrator.Version()).Msg("database migrated")

	return db, nil
}

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		logging.InitFromEnv()
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Options{Level: appConfig.Logging.Level, File: appConfig.Logging.File})
	if envErr != nil {
		log.Debug().Msg("no .env file found, using system environment variables")
	}

	if appConfig.Server.GinMode != "" {
		gin.SetMode(appConfig.Server.GinMode)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create application container")
	}

	if appConfig.Database.URL != "" {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize database")
		}
		if err := appContainer.InitWithDatabase(db); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize container")
		}
	}

	server := appContainer.NewServer()
	if appContainer.Source != nil {
		if err := server.Reload(context.Background()); err != nil {
			log.Error().Err(err).Msg("initial roster load failed; waiting for PUT /api/population")
		}
	} else {
		log.Warn().Msg("no roster source configured; waiting for PUT /api/population")
	}

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := appContainer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("container shutdown failed")
	}
}
