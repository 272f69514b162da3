package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hollyoak/housepoints/internal/backup"
	"github.com/hollyoak/housepoints/internal/database"
	"github.com/hollyoak/housepoints/internal/logging"
	"github.com/hollyoak/housepoints/internal/middleware"
	"github.com/hollyoak/housepoints/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("HOUSEPOINTS_LOG_LEVEL"), os.Getenv("HOUSEPOINTS_LOG_FORMAT"))

	port := os.Getenv("HOUSEPOINTS_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("HOUSEPOINTS_DB_PATH")
	if dbPath == "" {
		dbPath = "housepoints.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("HOUSEPOINTS_S3_ENDPOINT"),
			Bucket:    os.Getenv("HOUSEPOINTS_S3_BUCKET"),
			Region:    os.Getenv("HOUSEPOINTS_S3_REGION"),
			AccessKey: os.Getenv("HOUSEPOINTS_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("HOUSEPOINTS_S3_SECRET_KEY"),
			Prefix:    os.Getenv("HOUSEPOINTS_S3_PREFIX"),
		},
		DBPath:   dbPath,
		Interval: durationEnv("HOUSEPOINTS_BACKUP_INTERVAL_HOURS", 24) * time.Hour,
	}

	rateLimiter := middleware.NewRateLimiter(30, time.Minute)

	srv := server.New(db, backupCfg, rateLimiter, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	go srv.Checker().Run(bgCtx, durationEnv("HOUSEPOINTS_RECONCILE_INTERVAL_MINUTES", 60)*time.Minute)
	go srv.BackupManager().Run(bgCtx)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rateLimiter.Cleanup()
			case <-bgCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("housepoints starting", "addr", ":"+port, "db", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func durationEnv(key string, fallback int) time.Duration {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(fallback)
}
