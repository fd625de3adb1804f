package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	cdfadapter "github.com/couchcryptid/argo-profile-etl/internal/adapter/cdf"
	httpadapter "github.com/couchcryptid/argo-profile-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/argo-profile-etl/internal/adapter/kafka"
	"github.com/couchcryptid/argo-profile-etl/internal/adapter/mongo"
	"github.com/couchcryptid/argo-profile-etl/internal/adapter/s3"
	"github.com/couchcryptid/argo-profile-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/argo-profile-etl/internal/config"
	"github.com/couchcryptid/argo-profile-etl/internal/decode"
	"github.com/couchcryptid/argo-profile-etl/internal/observability"
	"github.com/couchcryptid/argo-profile-etl/internal/pipeline"
	"github.com/couchcryptid/argo-profile-etl/internal/profile"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Ingest profile files (local paths or s3:// uris) into the configured sink",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runIngest(cmd.Context(), cfg, args)
		},
	}
}

func runIngest(parent context.Context, cfg *config.Config, args []string) error {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, closeSink, err := newSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSink(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}()

	opts := pipeline.Options{
		SourceMarker:       cfg.SourceMarker,
		SourceURLPrefix:    cfg.SourceURLPrefix,
		Vocabulary:         decode.DefaultVocabulary().With(cfg.LabelDimensions...),
		RawOnly:            profile.DefaultRawOnly,
		AttributeCacheSize: cfg.AttributeCacheSize,
	}
	paths := args
	if cfg.S3Enabled() {
		fetcher, err := s3.NewFetcher(cfg, logger)
		if err != nil {
			return err
		}
		opts.Fetcher = fetcher
		if paths, err = expandRemote(ctx, fetcher, args); err != nil {
			return err
		}
	}

	p := pipeline.New(cdfadapter.Opener{}, sink, opts, logger, metrics)

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, func() any { return p.Status() }, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx, paths)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	logger.Info("shutdown complete")
	return runErr
}

func expandRemote(ctx context.Context, f *s3.Fetcher, args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		if !pipeline.IsRemote(a) {
			out = append(out, a)
			continue
		}
		uris, err := f.Expand(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, uris...)
	}
	return out, nil
}

// newSink connects the backend named by SINK_BACKEND.
func newSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Sink, func() error, error) {
	switch cfg.SinkBackend {
	case config.BackendMongo:
		s, err := mongo.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return s.Close(closeCtx)
		}, nil
	case config.BackendPostgres, config.BackendSQLite:
		dialect, err := sqlstore.ParseDialect(cfg.SinkBackend)
		if err != nil {
			return nil, nil, err
		}
		dsn := cfg.PostgresDSN
		if dialect == sqlstore.SQLite {
			dsn = cfg.SQLitePath
		}
		s, err := sqlstore.Open(ctx, dialect, dsn, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendKafka:
		w := kafkaadapter.NewWriter(cfg, logger)
		return w, w.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported sink backend %q", cfg.SinkBackend)
	}
}
