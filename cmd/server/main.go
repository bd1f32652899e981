package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "roomqueue/internal/adapters/http"
	"roomqueue/internal/adapters/ws"
	"roomqueue/internal/clock"
	"roomqueue/internal/config"
	"roomqueue/internal/hub"
	"roomqueue/internal/ledger"
	"roomqueue/internal/queue"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	clk := clock.NewSystem()
	slots := clock.TimeSlots(cfg.OpenHour, cfg.CloseHour)
	h := hub.New()
	users := ledger.NewUsers(cfg.AdminIDs)
	led := ledger.New(clk, ws.NewAnnouncer(h), ledger.WithSlots(slots))
	q := queue.New(cfg.GrantDelay, cfg.TurnTTL, ws.NewNotifier(h), clk)

	wsCtl := ws.NewController(h, q, cfg.ReadLimit, cfg.PingPeriod)
	handler := router.NewHandler(users, led, q, cfg.SeededRooms(), clk)
	router.RegisterSlotValidation(slots)

	r := router.SetupRouter(cfg, handler, wsCtl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("roomqueue server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
