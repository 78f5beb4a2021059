// Package main runs a development server speaking the thread protocol:
// one POST endpoint that answers streaming request kinds with
// server-sent events and the rest with plain JSON.
//
// Without any API key configured, replies are scripted. Keywords in the
// user message select a scenario: "widget", "error", "tool", "workflow",
// "notice", "slow", "long", "sources", "confetti". With OPENAI_API_KEY or
// ANTHROPIC_API_KEY set, the default scenario streams a real model reply
// instead.
//
// Configuration is via environment variables (a .env file is honored):
//
//	PORT              - Server port (default: 8000)
//	OPENAI_API_KEY    - Enables live replies through OpenAI
//	OPENAI_MODEL      - Model override
//	ANTHROPIC_API_KEY - Enables live replies through Anthropic
//	ANTHROPIC_MODEL   - Model override
//
// Usage:
//
//	go run ./cmd/devserver
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/spetersoncode/threadkit/internal/responder"
)

func main() {
	godotenv.Load() // Load .env file if present

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	resp := responder.FromEnv()
	if resp != nil {
		slog.Info("live replies enabled")
	} else {
		slog.Info("no API key configured, replies are scripted")
	}

	mux := http.NewServeMux()
	mux.Handle("/threadkit", corsMiddleware(newHandler(resp)))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // event streams need no write timeout
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("dev server listening", "addr", "http://localhost:"+port+"/threadkit")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server", "error", err)
		os.Exit(1)
	}
}

// corsMiddleware allows browser frontends served from another origin to
// reach the endpoint.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
