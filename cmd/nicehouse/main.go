package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/August1314/nicehouse/common/logger"
	"github.com/August1314/nicehouse/internal/clock"
	"github.com/August1314/nicehouse/internal/config"
	"github.com/August1314/nicehouse/internal/httpapi"
	"github.com/August1314/nicehouse/internal/layout"
	"github.com/August1314/nicehouse/internal/observability"
	"github.com/August1314/nicehouse/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const (
	serviceName     = "nicehouse"
	connectTimeout  = 15 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	// 1. config
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. logger
	log, err := initLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = start(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("NiceHouse exited", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("NiceHouse stopped")
	_ = log.Sync()
}

// start builds the house from cfg and serves until ctx is done.
func start(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// 3. house layout
	houseLayout, err := layout.Load(cfg.House.LayoutFile)
	if err != nil {
		return fmt.Errorf("load house layout: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	// 4. house and sinks
	house := service.New(cfg, clock.System{}, metrics, log)
	if err := house.RegisterAll(houseLayout); err != nil {
		return fmt.Errorf("register house: %w", err)
	}

	connectCtx, connectCancel := context.WithTimeout(ctx, connectTimeout)
	err = house.ConnectSinks(connectCtx)
	connectCancel()
	if err != nil {
		_ = house.Stop()
		return fmt.Errorf("connect sinks: %w", err)
	}

	// 5. run loops and HTTP until ctx is done
	server := httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewRouter(house, metrics, log))
	log.Info("HTTP API listening", zap.String("addr", cfg.HTTP.Addr))
	return run(ctx, house, server, log)
}

type runner interface {
	Start(ctx context.Context) error
	Stop() error
}

type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// run serves house and srv until ctx is done or either fails. house.Stop is
// only called once house.Start has returned.
func run(ctx context.Context, house runner, srv server, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopsDone := make(chan error, 1)
	go func() {
		loopsDone <- house.Start(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	loopsStopped := false
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case runErr = <-serveErr:
		log.Error("Service error", zap.Error(runErr))
	case runErr = <-loopsDone:
		loopsStopped = true
		if runErr == nil {
			runErr = errors.New("house loops stopped unexpectedly")
		}
		log.Error("Service error", zap.Error(runErr))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	if !loopsStopped {
		if err := <-loopsDone; err != nil && runErr == nil {
			runErr = err
		}
	}
	if err := house.Stop(); err != nil {
		log.Warn("House stop incomplete", zap.Error(err))
	}
	return runErr
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.File != "" {
		return logger.NewFileLogger(cfg.Log.Level, cfg.Log.Format, serviceName, logger.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		})
	}
	return logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
}
