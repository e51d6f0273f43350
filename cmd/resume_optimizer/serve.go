package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/observability"
	"github.com/jonathan/resume-optimizer/internal/pipeline"
	"github.com/jonathan/resume-optimizer/internal/server"
)

type serveOptions struct {
	addr string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: "Start an HTTP server exposing /analyze, /analyze/stream, /runs, /health and /metrics. " +
			"Runs are recorded when DATABASE_URL is set and results are cached when REDIS_ADDR is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default: SERVER_ADDR)")
	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	cfg, log, err := root.load()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	mode, err := cfg.Mode()
	if err != nil {
		return err
	}
	addr := cfg.ServerAddr
	if opts.addr != "" {
		addr = opts.addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, log, true, true)
	if err != nil {
		return err
	}
	defer b.Close()

	// One generator for the server's lifetime rather than one per request
	gen, err := llm.NewGenerator(ctx, mode, cfg.APIKey)
	if err != nil {
		return err
	}
	defer llm.Close(gen) //nolint:errcheck

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pipelineOpts := pipeline.Options{
		Generator: gen,
		Config:    cfg.ModelConfig(),
		Retry:     llm.DefaultRetryPolicy(),
		Logger:    log,
		Metrics:   observability.NewMetrics(registry),
	}
	b.apply(&pipelineOpts)

	deps := server.Dependencies{
		Pipeline: pipelineOpts,
		Gatherer: registry,
		Logger:   log,
	}
	if b.db != nil {
		deps.Runs = b.db
	}

	srv := server.New(server.Config{
		Addr:           addr,
		RequestTimeout: cfg.RequestTimeout,
		RateLimit:      cfg.RateLimit(),
	}, deps)

	log.Info("serving", zap.String("addr", addr), zap.String("model_mode", string(mode)))
	return srv.Start(ctx)
}
