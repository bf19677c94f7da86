// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// ResultsBridge — CI Message Consumer
//
// Entry point for the bridge service. It:
//  1. Loads configuration from config.yaml
//  2. Connects to Redis (message queue) and the results API
//  3. Drains CI notification messages and normalizes them into results
//  4. Serves the message intake endpoint and a health check
//  5. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bcem/resultsbridge/internal/config"
	"github.com/bcem/resultsbridge/internal/consumer"
	"github.com/bcem/resultsbridge/internal/handlers"
	"github.com/bcem/resultsbridge/internal/intake"
	"github.com/bcem/resultsbridge/internal/resultsdb"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	slog.Info("starting resultsbridge")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"resultsdb", cfg.ResultsDB.APIURL,
		"queue", cfg.MessageQueue,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Results API Client ---
	client, err := resultsdb.NewClient(ctx, cfg.ResultsDB)
	if err != nil {
		slog.Error("failed to build results API client", "error", err)
		os.Exit(1)
	}

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	dispatcher := handlers.NewDispatcher(client)
	cons := consumer.New(rdb, cfg.MessageQueue, dispatcher)
	if err := cons.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	go cons.Run(ctx)

	// --- HTTP Server: message intake + health check ---
	queue := intake.NewQueue(rdb, cfg.MessageQueue)
	ih := intake.NewHandler(queue)

	mux := http.NewServeMux()
	mux.HandleFunc("/messages", ih.ServeMessage)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := cons.Ping(r.Context()); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel() // Stop the consume loop

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		rdb.Close()
	}()

	slog.Info("resultsbridge listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("resultsbridge stopped")
}

func logLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
