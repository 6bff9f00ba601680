// Command server is the composition root: it reads Config, wires the
// registry/bot/persistence/gateway/httpapi packages together, and serves
// both the websocket and HTTP surfaces on one listener, grounded on
// apps/server/main.go's wiring shape (build every service, wire the
// gateway and HTTP handlers on top, log each backend's mode, serve).
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"eldorado/bot"
	"eldorado/config"
	"eldorado/gateway"
	"eldorado/httpapi"
	"eldorado/metrics"
	"eldorado/persistence"
	"eldorado/registry"
	"eldorado/tokens"
)

func main() {
	cfg := config.FromEnv()

	store, storeKind, err := newPersistenceFromConfig(cfg)
	if err != nil {
		log.Fatalf("[server] persistence init failed: %v", err)
	}
	defer store.Close()
	log.Printf("[server] persistence backend: %s", storeKind)

	botManager := bot.NewManager()
	if cfg.MCTSEnabled && cfg.MCTSEndpoint != "" {
		remote := bot.NewRemote(cfg.MCTSEndpoint, 0)
		remote.Metrics = metrics.Sink{}
		botManager.SetStrategy(cfg.MCTSStrategyType, remote)
		log.Printf("[server] remote bot strategy %q wired to %s", cfg.MCTSStrategyType, cfg.MCTSEndpoint)
	}

	reg := registry.New(registry.Dependencies{
		Bots:        botManager,
		Persistence: store,
		TurnTimeout: cfg.TurnTimeout,
		BotDelay:    cfg.BotDelay,
	})
	defer reg.Stop()

	signer := tokens.NewSigner(cfg.PlayerTokenSecret, cfg.PlayerTokenTTL)
	gw := gateway.New(reg, signer)

	api := httpapi.NewServer(reg, signer, store, httpapi.RoomDefaults{
		MinPlayers: 2, MaxPlayers: 6, RoundCount: 7,
	}, newSessionSeed)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	httpMux := http.NewServeMux()
	httpMux.Handle("/", api.Routes())
	httpMux.HandleFunc("/ws", gw.HandleWebSocket)

	server := &http.Server{Addr: addr, Handler: httpMux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("[server] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] listen failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown error: %v", err)
	}
}

func newPersistenceFromConfig(cfg config.Config) (persistence.Service, string, error) {
	if cfg.DatabaseURL == "" {
		return persistence.NewNoop(), "noop", nil
	}
	if isPostgresURL(cfg.DatabaseURL) {
		svc, err := persistence.NewPostgresService(cfg.DatabaseURL)
		if err != nil {
			return nil, "", err
		}
		return svc, "postgres", nil
	}
	svc, err := persistence.NewSQLiteService(cfg.DatabaseURL)
	if err != nil {
		return nil, "", err
	}
	return svc, "sqlite", nil
}

func isPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

var sessionSeedCounter uint64

func newSessionSeed() string {
	sessionSeedCounter++
	return fmt.Sprintf("session-%d-%d", time.Now().UnixNano(), sessionSeedCounter)
}
