// Package main provides the resume_optimizer CLI: one-shot analysis, the evaluation
// harness, the HTTP server and inspection commands for retrieval and redaction.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-optimizer/internal/cache"
	"github.com/jonathan/resume-optimizer/internal/config"
	"github.com/jonathan/resume-optimizer/internal/db"
	"github.com/jonathan/resume-optimizer/internal/logging"
	"github.com/jonathan/resume-optimizer/internal/pipeline"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configFile string
	logLevel   string
	logFormat  string
	modelMode  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "resume_optimizer",
		Short: "Résumé and cover letter optimizer with numeric and privacy guardrails",
		Long: "resume_optimizer scores a résumé against a job description and rewrites the résumé " +
			"and cover letter. Numbers in the rewrite must come from the metrics vault and personal " +
			"data can be redacted before any prompt leaves the process.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a YAML or JSON config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (console or json)")
	cmd.PersistentFlags().StringVar(&opts.modelMode, "model-mode", "", "Model mode (mock or real); overrides MODEL_MODE")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newEvalCmd(opts),
		newServeCmd(opts),
		newChunksCmd(),
		newRedactCmd(),
	)
	return cmd
}

// load reads the configuration, applies flag overrides and builds the logger.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if o.modelMode != "" {
		cfg.ModelMode = o.modelMode
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}

// backends holds the optional persistence and cache connections.
type backends struct {
	db    *db.DB
	cache *cache.Redis
}

// openBackends connects to Postgres and Redis when they are configured and requested.
func openBackends(ctx context.Context, cfg *config.Config, log *zap.Logger, useDB, useCache bool) (*backends, error) {
	b := &backends{}
	if useDB && cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		log.Info("run persistence enabled")
		b.db = database
	}
	if useCache && cfg.RedisAddr != "" {
		c, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info("result cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
		b.cache = c
	}
	return b, nil
}

// apply sets the connected backends on opts. Unset backends stay nil interfaces.
func (b *backends) apply(opts *pipeline.Options) {
	if b.db != nil {
		opts.Store = b.db
	}
	if b.cache != nil {
		opts.Cache = b.cache
	}
}

func (b *backends) Close() {
	if b.db != nil {
		b.db.Close()
	}
	if b.cache != nil {
		_ = b.cache.Close()
	}
}

func main() {
	if _, err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
