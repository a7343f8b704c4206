package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jopatk123/myweb-sub001/internal/ai"
	"github.com/jopatk123/myweb-sub001/internal/config"
	"github.com/jopatk123/myweb-sub001/internal/httpapi"
	"github.com/jopatk123/myweb-sub001/internal/registry"
	"github.com/jopatk123/myweb-sub001/internal/room"
	"github.com/jopatk123/myweb-sub001/internal/session"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker := session.NewTracker(cfg.ReconnectGrace, logger)
	defer tracker.Close()

	reg := registry.New(ctx, room.Timing{
		VoteWindow:   cfg.VoteWindow,
		TickInterval: cfg.TickInterval,
		EmptyTTL:     cfg.EmptyRoomTTL,
	}, ai.Greedy{}, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(reg, tracker, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
