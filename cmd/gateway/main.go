package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/registry"
	"github.com/DanielPopoola/posgateway/internal/adapters/handler"
	"github.com/DanielPopoola/posgateway/internal/adapters/handler/middleware"
	"github.com/DanielPopoola/posgateway/internal/adapters/transport"
	"github.com/DanielPopoola/posgateway/internal/config"
	"github.com/DanielPopoola/posgateway/internal/core/service"
)

func main() {
	configPath := flag.String("config", os.Getenv("GATEWAY_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting gateway service",
		"port", cfg.Server.Port,
		"env", cfg.Primary.Env,
		"log_level", cfg.Logger.Level,
	)

	merchants, err := registry.New().Bind(cfg.DomainAccounts(), cfg.Endpoints)
	if err != nil {
		logger.Error("failed to bind merchant accounts", "error", err)
		os.Exit(1)
	}
	for bank, gw := range merchants {
		logger.Info("merchant account bound",
			"bank", bank,
			"variant", gw.Variant().Name(),
			"model", gw.Model(),
		)
	}

	httpTransport := transport.NewHTTPTransport(cfg.Transport, logger)
	retryTransport := transport.NewInquiryRetrier(httpTransport, cfg.Retry, logger)

	paymentService := service.NewPaymentService(retryTransport, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, merchants, logger)

	mux := http.NewServeMux()
	paymentHandler.RegisterRoutes(mux)

	router := http.Handler(mux)

	h := middleware.Recovery(logger)(router)
	h = middleware.Logging(logger)(h)
	h = middleware.Timeout(cfg.Server.RequestTimeout)(h)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
