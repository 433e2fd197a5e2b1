package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trustdebt/adapters/postgres"
	"trustdebt/internal"
	"trustdebt/internal/config"
	"trustdebt/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLoggerWithMode(internal.ParseLogLevel(appConfig.Log.Level), appConfig.Log.Mode)
	internal.DefaultLogger = logger

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if appConfig.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		db, err := postgres.Connect(ctx, appConfig.Database.URL)
		if err == nil {
			err = appContainer.InitWithDatabase(ctx, db)
		}
		cancel()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
	} else {
		logger.Warn("DATABASE_URL not set; run history and trajectories from history are disabled")
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           appContainer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("trust-debt server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed: %v", err)
	}
}
