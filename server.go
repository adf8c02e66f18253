package fleettelemetry

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

var server *http.Server

// StartServer exposes the engine's query surface over HTTP. The surface is
// poll-based: clients re-request snapshots, nothing is pushed.
func StartServer(e *Engine, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", handleHealth(e))
	mux.HandleFunc("/api/fleet/vehicles.json", handleLiveVehicles(e))
	mux.HandleFunc("/api/fleet/track.json", handleTrack(e))

	addr := fmt.Sprintf(":%d", port)
	server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Infof("server listening on %s", addr)
}

// HandleGracefulShutdown blocks until SIGINT/SIGTERM, then stops the engine's
// schedulers and drains the HTTP server.
func HandleGracefulShutdown(e *Engine) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("shutdown signal received")

	e.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			log.Errorf("server shutdown error: %v", err)
		} else {
			log.Info("server shut down successfully")
		}
	}
}
