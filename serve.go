package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chaos-io/cutout/cache"
	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/handler"
	"github.com/chaos-io/cutout/janitor"
	"github.com/chaos-io/cutout/segment"
	"github.com/chaos-io/cutout/session"
	"github.com/chaos-io/cutout/util"
	nhttp "github.com/chaos-io/cutout/util/http"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if port != "" {
				if !strings.HasPrefix(port, ":") {
					port = ":" + port
				}
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml if present)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port, overrides server.port")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.New(), nil
	}
	return config.Load(path)
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := util.InitLogger(cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer util.Sync()

	util.Logger.Info("starting cutout server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	store, err := session.NewStore(cfg.Storage.UploadDir, cfg.Storage.OutputDir, cfg.Storage.AllowedExtensions)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	resultCache := cache.New(pingCtx, &cfg.Redis)
	cancel()
	defer func() {
		_ = resultCache.Close()
	}()

	backend := segment.NewSAM2Client(cfg.Model.InferenceURL, cfg.Model.Timeout, nhttp.NewHTTPClient())
	manager := segment.NewManager(backend, segment.Options{
		CheckpointRoot: cfg.Model.CheckpointRoot,
		MaxInputSide:   cfg.Model.MaxInputSide,
		MaxConcurrent:  cfg.Model.MaxConcurrent,
		QueueTimeout:   cfg.Model.QueueTimeout,
	})

	if cfg.Janitor.Enabled {
		j, err := janitor.New(cfg.Janitor.Schedule, cfg.Janitor.MaxAge, store.UploadDir(), store.OutputDir())
		if err != nil {
			return err
		}
		j.Start()
		defer j.Stop()
		util.Logger.Info("janitor started",
			zap.String("schedule", cfg.Janitor.Schedule),
			zap.Duration("max_age", cfg.Janitor.MaxAge))
	}

	gin.SetMode(cfg.Server.Mode)

	h := handler.New(cfg, store, manager, resultCache)
	h.Version = Version

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handler.NewRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		util.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	util.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
