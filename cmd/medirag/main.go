package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/seonho/medirag/internal/api"
	"github.com/seonho/medirag/internal/config"
	"github.com/seonho/medirag/internal/db"
	"github.com/seonho/medirag/internal/extract"
	"github.com/seonho/medirag/internal/services"
	"github.com/seonho/medirag/internal/storage"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		serve()
		return
	}
	fmt.Println("medirag v0.1.0")
	fmt.Println("Usage: medirag serve")
}

func serve() {
	_ = godotenv.Load()

	cfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("database URL is required (set DATABASE_URL or database.url in config.yaml)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("database error", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		slog.Error("migration error", "err", err)
		os.Exit(1)
	}

	blobs, err := storage.NewLocalStore(cfg.Storage.Dir)
	if err != nil {
		slog.Error("storage error", "err", err)
		os.Exit(1)
	}

	docs := services.NewDocumentService(database, blobs, extract.NewPDFExtractor())

	sweeper, err := services.NewSweeper(database, cfg.Sweep.Schedule, cfg.Sweep.StaleAfter)
	if err != nil {
		slog.Error("sweeper error", "err", err)
		os.Exit(1)
	}
	sweeper.Start()

	srv := api.NewServer(docs)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: srv.Handler()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting medirag server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sweeper.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
