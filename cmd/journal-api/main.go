package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bullet-productivity/journal/internal/app/commandapi"
	"github.com/bullet-productivity/journal/internal/app/journal"
	"github.com/bullet-productivity/journal/internal/platform/config"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	j, err := journal.Start(runCtx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := j.Close(); err != nil {
			log.Printf("close event log: %v", err)
		}
	}()

	metrics := j.Metrics()
	handler := commandapi.NewHandler(commandapi.NewService(j), j.Feed(), metrics.Handler(), cfg.HTTP.AllowedOrigins)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	fmt.Printf("Journal API listening on %s (backend %s)\n", cfg.HTTP.Addr, cfg.Backend)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Print(err)
		return
	case <-runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("journal-api graceful shutdown failed: %v", err)
	}
}
