// Command kyc-analyzer serves the document analysis HTTP API.
//
// Usage:
//
//	kyc-analyzer
//	kyc-analyzer --addr :9000 --env-file deploy/.env
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Sravyatammana-ab/kyc-analyzer/internal/app"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/common"
	"github.com/Sravyatammana-ab/kyc-analyzer/internal/server"
)

// CLI defines the command-line interface. Everything else comes from the
// environment.
type CLI struct {
	EnvFile    string `name:"env-file" help:"Dotenv file to load before reading the environment." default:".env" type:"path"`
	Addr       string `help:"HTTP listen address (overrides HTTP_ADDR)."`
	HealthAddr string `name:"health-addr" help:"gRPC health listen address (overrides GRPC_HEALTH_ADDR)."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("kyc-analyzer"),
		kong.Description("Document analysis API: text extraction, classification and field analysis."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(cli.Run())
}

func (c *CLI) Run() error {
	if err := common.LoadDotEnv(c.EnvFile); err != nil {
		return err
	}
	cfg := common.LoadConfig()
	if c.Addr != "" {
		cfg.Server.HTTPAddr = c.Addr
	}
	if c.HealthAddr != "" {
		cfg.Server.GRPCHealthAddr = c.HealthAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := app.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := server.NewMetrics()
	proc, err := app.NewProcessor(ctx, cfg, metrics.OCRAttemptHook(), logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	logger.Info("app.config",
		"llm_provider", cfg.LLM.Provider,
		"tesseract", cfg.OCR.TesseractCmd,
		"tessdata", cfg.OCR.TessdataDir,
		"ocr_deadline", cfg.OCR.Deadline,
		"ocr_exhaustive", cfg.OCR.Exhaustive,
		"max_upload_mb", cfg.Server.MaxUploadBytes>>20,
	)

	srv := server.New(cfg.Server, proc, metrics, logger)
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http.serve", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	var grpcServer *grpc.Server
	if cfg.Server.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcServer = grpc.NewServer()
		hs := health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, hs)
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		reflection.Register(grpcServer)
		go func() {
			logger.Info("grpc.health.serve", "addr", cfg.Server.GRPCHealthAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc serve: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("app.shutdown")
	case err := <-errCh:
		logger.Error("app.serve_failed", "error", err)
		stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("app.stopped")
	return nil
}
