package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Lobby/internal/adapters/http"
	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/config"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())
	if cfg.Mode == "release" {
		// JSON lines for log shippers.
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	policy, err := app.PolicyFor(cfg.SlowConsumer)
	if err != nil {
		log.Fatal().Err(err).Msg("slow consumer policy")
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	dir := core.NewDirectory()
	m := metrics.New(promReg, dir.Len)
	relay := app.NewRelay(dir, app.NewRegistry(dir, policy, m), m)

	r := router.SetupRouter(ctx, cfg, relay, metrics.Handler(promReg))
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("mode", cfg.Mode).Msg("Lobby server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Hijacked sockets outlive Shutdown; close them so every session leaves its room.
	relay.Shutdown()
	log.Info().Msg("Server exited gracefully")
}
