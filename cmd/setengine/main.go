package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bguspl/setengine/internal/config"
	"github.com/bguspl/setengine/internal/dealer"
	"github.com/bguspl/setengine/internal/oracle"
	"github.com/bguspl/setengine/internal/ui"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "setengine: build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	oc, err := oracle.NewLua(cfg.FeatureSize, cfg.DeckSize)
	if err != nil {
		logger.Warn("falling back to native oracle", zap.Error(err))
	}
	var legalSetOracle oracle.Oracle
	if oc != nil {
		defer oc.Close()
		legalSetOracle = oc
	} else {
		legalSetOracle = oracle.NewNative(cfg.FeatureSize, cfg.DeckSize)
	}

	hub := ui.NewHub(allowedOrigins(cfg.WSAddr), logger.Named("ui"))

	d := dealer.New(cfg, legalSetOracle, hub, logger.Named("dealer"), time.Now().UnixNano())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/hints", func(w http.ResponseWriter, r *http.Request) {
		sets, enabled := d.Hints(0)
		if !enabled {
			http.Error(w, "hints disabled", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sets); err != nil {
			logger.Warn("encode hints response", zap.Error(err))
		}
	})
	mux.HandleFunc("/keypress/", func(w http.ResponseWriter, r *http.Request) {
		playerID, slot, err := parseKeyPressPath(r.URL.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if playerID < 0 || playerID >= len(cfg.PlayerNames) {
			http.Error(w, "unknown player", http.StatusNotFound)
			return
		}
		d.KeyPress(playerID, slot)
		w.WriteHeader(http.StatusNoContent)
	})

	server := &http.Server{Addr: cfg.WSAddr, Handler: cors(allowedOrigins(cfg.WSAddr), mux)}
	go func() {
		logger.Info("ui server listening", zap.String("addr", cfg.WSAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ui server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	os.Exit(0)
}

func allowedOrigins(addr string) []string {
	host := strings.TrimPrefix(addr, ":")
	return []string{"http://localhost" + addr, "http://127.0.0.1" + addr, "http://" + host}
}

// cors lets a browser-based viewer (the /ws and /hints endpoints) be
// fetched from one of allow's origins; every other origin is served
// without the CORS headers, which browsers then refuse to read.
func cors(allow []string, next http.Handler) http.Handler {
	allowSet := map[string]struct{}{}
	for _, a := range allow {
		if a != "" {
			allowSet[a] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if _, ok := allowSet[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseKeyPressPath(path string) (playerID, slot int, err error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "keypress" {
		return 0, 0, fmt.Errorf("setengine: expected /keypress/{player}/{slot}")
	}
	playerID, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("setengine: bad player id: %w", err)
	}
	slot, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("setengine: bad slot: %w", err)
	}
	return playerID, slot, nil
}
