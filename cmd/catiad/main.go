package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catiad"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/config"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	var configPath string
	var grpcAddr string
	var httpAddr string
	var logLevel string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&grpcAddr, "grpc-addr", "", "gRPC listen address (overrides config)")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if grpcAddr != "" {
		cfg.GRPCAddr = grpcAddr
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger.SetDefault(logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	store := catiad.NewEvalStore()

	var archive *catiad.Archive
	if cfg.StorePath != "" {
		archive, err = catiad.OpenArchive(cfg.StorePath)
		if err != nil {
			logger.Error("failed to open archive", "path", cfg.StorePath, "error", err)
			stop()
			os.Exit(1)
		}
		defer archive.Close()
		logger.Info("archive open", "path", cfg.StorePath)
	}

	notifier, err := catiad.NewNotifier(cfg.Callback)
	if err != nil {
		logger.Error("failed to configure callback", "error", err)
		stop()
		os.Exit(1)
	}

	executor := catiad.NewExecutor(catiad.ExecutorOptions{
		Store:    store,
		Archive:  archive,
		Notifier: notifier,
		Session:  cfg.Session,
		Model:    *cfg.Model,
	})

	// TODO: Configure gRPC server security (e.g., TLS, authentication, rate limiting)
	// before using this service in a production environment.
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen for gRPC", "addr", cfg.GRPCAddr, "error", err)
		stop()
		os.Exit(1)
	}

	// No write timeout: the evaluation stream holds responses open
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           catiad.NewHTTPServer(store, executor, archive).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("executor starting", "model", cfg.Model.Path, "prog_id", cfg.Session.ProgID)
		if err := executor.Run(ctx); err != nil {
			logger.Error("executor error", "error", err)
			stop()
		}
	}()

	// Mirror executor health into the gRPC health service
	go func() {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
				if executor.Healthy() {
					status = grpc_health_v1.HealthCheckResponse_SERVING
				}
				healthServer.SetServingStatus("", status)
			}
		}
	}()

	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(grpcLis); err != nil {
			logger.Error("gRPC server error", "error", err)
			stop()
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
}
