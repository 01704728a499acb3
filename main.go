package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tutortoise/grocery-detection-service/config"
	"github.com/Tutortoise/grocery-detection-service/detections"
	"github.com/Tutortoise/grocery-detection-service/grocery"
	"github.com/Tutortoise/grocery-detection-service/logging"
	"github.com/Tutortoise/grocery-detection-service/models"
	"github.com/Tutortoise/grocery-detection-service/relay"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Server.Mode)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Sync(logger)

	logger.Info("starting grocery detection server",
		zap.String("version", Version),
		zap.String("git_commit", GitCommit))

	modelPath, err := detections.VerifyModel(cfg.Model.Path)
	if err != nil {
		return err
	}
	libPath, err := detections.RuntimeLibrary(cfg.Model.LibraryDir)
	if err != nil {
		return err
	}
	if err := detections.InitRuntime(libPath); err != nil {
		return err
	}
	defer detections.ShutdownRuntime()

	phrases := detections.ParsePrompt(cfg.Detection.Prompt)
	logger.Info("loading detector",
		zap.String("model", modelPath),
		zap.Strings("phrases", phrases),
		zap.Int("pool_size", cfg.Model.PoolSize),
		zap.Strings("cpu_features", detections.CPUFeatures()))

	pool, err := detections.NewSessionPool(func() (*detections.ModelSession, error) {
		return detections.NewModelSession(detections.SessionConfig{
			ModelPath:      modelPath,
			Width:          cfg.Model.InputWidth,
			Height:         cfg.Model.InputHeight,
			NumQueries:     cfg.Model.NumQueries,
			NumPhrases:     len(phrases),
			IntraOpThreads: cfg.Model.IntraOpThreads,
		})
	}, cfg.Model.PoolSize, cfg.Model.AcquireTimeout, logger)
	if err != nil {
		return fmt.Errorf("failed to create model session pool: %w", err)
	}
	defer pool.Close()
	logger.Info("detector loaded")

	detector := detections.NewDetector(pool, detections.DetectorConfig{
		Prompt:     cfg.Detection.Prompt,
		Width:      cfg.Model.InputWidth,
		Height:     cfg.Model.InputHeight,
		NumQueries: cfg.Model.NumQueries,
	})

	var (
		relayer     grocery.Relayer
		relayClient *relay.Client
	)
	if cfg.Relay.Enabled {
		relayClient = relay.New(cfg.Relay.Endpoint, cfg.Relay.Timeout, logger)
		relayer = relayClient
	} else {
		logger.Warn("relay disabled, classifications will not be forwarded")
	}

	pipeline := grocery.NewPipeline(detector, relayer, grocery.Settings{
		Prompt: cfg.Detection.Prompt,
		Thresholds: models.Thresholds{
			Box:  cfg.Detection.BoxThreshold,
			Text: cfg.Detection.TextThreshold,
		},
		BotID:        cfg.Relay.BotID,
		RelayTimeout: cfg.Relay.Timeout,
	}, logger)

	state := &AppState{
		Pipeline:      pipeline,
		Pool:          pool,
		Relay:         relayClient,
		Logger:        logger,
		MaxUploadSize: cfg.Upload.MaxSize,
		UploadField:   cfg.Upload.Field,
	}

	srv := &http.Server{
		Handler:      newRouter(state),
		Addr:         cfg.Server.Addr,
		WriteTimeout: cfg.Server.WriteTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown incomplete", zap.Error(err))
	}
	if err := pipeline.Drain(shutdownCtx); err != nil {
		logger.Warn("pending relays abandoned", zap.Error(err))
	}
	return nil
}
