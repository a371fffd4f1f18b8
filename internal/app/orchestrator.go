package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quantmind-br/yuqueback-go/internal/assets"
	"github.com/quantmind-br/yuqueback-go/internal/backup"
	"github.com/quantmind-br/yuqueback-go/internal/cache"
	"github.com/quantmind-br/yuqueback-go/internal/config"
	"github.com/quantmind-br/yuqueback-go/internal/domain"
	"github.com/quantmind-br/yuqueback-go/internal/output"
	"github.com/quantmind-br/yuqueback-go/internal/plan"
	"github.com/quantmind-br/yuqueback-go/internal/ratelimit"
	"github.com/quantmind-br/yuqueback-go/internal/state"
	"github.com/quantmind-br/yuqueback-go/internal/utils"
	"github.com/quantmind-br/yuqueback-go/internal/yuque"
)

// Orchestrator assembles the backup pipeline from configuration: store,
// client, writer, hooks and engine. One orchestrator serves one process
// invocation and tags every log line with its run id.
type Orchestrator struct {
	config   *config.Config
	logger   *utils.Logger
	runID    string
	dryRun   bool
	progress bool
	cache    domain.Cache
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	Config   *config.Config
	Verbose  bool
	DryRun   bool
	Progress bool
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config

	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logLevel := "info"
	logFormat := "pretty"
	if cfg.Logging.Level != "" {
		logLevel = cfg.Logging.Level
	}
	if cfg.Logging.Format != "" {
		logFormat = cfg.Logging.Format
	}
	if opts.Verbose {
		logLevel = "debug"
	}

	runID := uuid.NewString()
	logger := utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  logFormat,
		Verbose: opts.Verbose,
	}).WithRun(runID)

	o := &Orchestrator{
		config:   cfg,
		logger:   logger,
		runID:    runID,
		dryRun:   opts.DryRun,
		progress: opts.Progress,
	}

	// A missing cache only costs re-downloads, never the backup itself.
	if cfg.Assets.Enabled && cfg.Assets.Cache && !opts.DryRun {
		cacheDir := cfg.Assets.CacheDir
		if cacheDir == "" {
			cacheDir = config.CacheDir()
		}
		c, err := cache.NewBadgerCache(cache.Options{
			Directory: utils.ExpandPath(cacheDir),
		})
		if err != nil {
			logger.Warn().Err(err).Str("dir", cacheDir).
				Msg("Asset cache unavailable, continuing without it")
		} else {
			o.cache = c
		}
	}

	return o, nil
}

// RunID returns the identifier stamped on this orchestrator's log lines.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Close releases all resources held by the orchestrator
func (o *Orchestrator) Close() error {
	if o.cache != nil {
		return o.cache.Close()
	}
	return nil
}

// Run executes one backup for the target named in the configuration.
func (o *Orchestrator) Run(ctx context.Context) error {
	return o.runTarget(ctx, o.config)
}

func (o *Orchestrator) runTarget(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	if cfg.Target.Login == "" {
		return fmt.Errorf("target login is required")
	}

	baseDir := utils.ExpandPath(cfg.Output.Dir)

	o.logger.Info().
		Str("host", cfg.Host).
		Str("type", cfg.Target.Type).
		Str("login", cfg.Target.Login).
		Str("output", baseDir).
		Bool("dry_run", o.dryRun).
		Msg("Starting backup")

	store := state.NewStore(baseDir, o.logger)
	if err := store.Load(ctx); err != nil {
		switch {
		case errors.Is(err, state.ErrNotFound):
			o.logger.Debug().Str("path", store.Path()).
				Msg("No previous metadata, starting from scratch")
		case errors.Is(err, state.ErrCorrupted):
			o.logger.Warn().Err(err).Str("path", store.Path()).
				Msg("Metadata unreadable, every document counts as new")
		default:
			o.logger.Warn().Err(err).Str("path", store.Path()).
				Msg("Could not load metadata, every document counts as new")
		}
	}

	var retrier *yuque.Retrier
	if cfg.Retry.MaxRetries > 0 {
		retrier = yuque.NewRetrier(yuque.RetrierOptions{
			MaxRetries:      cfg.Retry.MaxRetries,
			InitialInterval: cfg.Retry.InitialWait,
			MaxInterval:     cfg.Retry.MaxWait,
		})
	}

	client, err := yuque.NewClient(yuque.Options{
		Host:     cfg.Host,
		Token:    cfg.Token,
		Target:   cfg.Target,
		PageSize: cfg.PageSize,
		Gate:     ratelimit.NewWindow(cfg.Limit),
		Retrier:  retrier,
		Logger:   o.logger,
	})
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	defer client.Close()

	runDir := filepath.Join(baseDir, start.Format(output.RunDirLayout))
	writer := output.NewWriter(runDir)
	if !o.dryRun {
		if err := writer.EnsureDirs(); err != nil {
			return fmt.Errorf("preparing output directory: %w", err)
		}
	}

	var hooks []domain.Hook
	if cfg.Assets.Enabled && !o.dryRun {
		mirror, err := assets.NewMirror(assets.MirrorOptions{
			Client: client,
			Cache:  o.cache,
			Host:   cfg.Host,
			Dir:    writer.FilesDir(),
			Logger: o.logger,
		})
		if err != nil {
			return fmt.Errorf("creating asset mirror: %w", err)
		}
		hooks = append(hooks, mirror)
	}

	engine, err := backup.NewEngine(backup.Options{
		Client:    client,
		Store:     store,
		Writer:    writer,
		Filter:    backup.NewFilter(cfg.Filter.Include, cfg.Filter.Exclude),
		Hooks:     hooks,
		ChunkSize: cfg.ChunkSize,
		DryRun:    o.dryRun,
		Progress:  o.progress,
		Logger:    o.logger,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	snap, runErr := engine.Run(ctx)

	// Documents tracked before an interruption must survive it, so the
	// store is saved even when the run was cut short.
	if !o.dryRun {
		if err := store.Save(ctx); err != nil {
			if runErr == nil {
				return fmt.Errorf("saving metadata: %w", err)
			}
			o.logger.Error().Err(err).Str("path", store.Path()).
				Msg("Could not save metadata")
		}
	}

	if runErr != nil {
		if ctx.Err() != nil {
			o.logger.Warn().Str("login", cfg.Target.Login).Msg("Backup cancelled")
			return ctx.Err()
		}
		return fmt.Errorf("backup failed: %w", runErr)
	}

	o.logger.Info().
		Str("login", cfg.Target.Login).
		Int64("books", snap.Books).
		Int64("documents", snap.Documents).
		Int64("skipped", snap.Skipped).
		Int64("failed", snap.Failed).
		Dur("duration", time.Since(start)).
		Msg("Backup completed")

	return nil
}

// PlanResult represents the outcome of one plan target
type PlanResult struct {
	Target   plan.Target
	Error    error
	Duration time.Duration
}

// RunPlan executes all targets defined in the plan
func (o *Orchestrator) RunPlan(ctx context.Context, planCfg *plan.Config) error {
	start := time.Now()
	total := len(planCfg.Targets)

	o.logger.Info().
		Int("targets", total).
		Bool("continue_on_error", planCfg.Options.ContinueOnError).
		Int("concurrency", planCfg.Options.Concurrency).
		Msg("Starting plan execution")

	if total == 0 {
		o.logger.Info().
			Dur("total_duration", time.Since(start)).
			Int("total", 0).
			Int("success", 0).
			Int("failed", 0).
			Msg("Plan execution completed")
		return nil
	}

	concurrency := planCfg.Options.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	// The request quota is per token; fanning out further just makes
	// every target starve the shared window.
	if concurrency > 3 {
		concurrency = 3
	}

	results := make([]PlanResult, total)
	var resultsMu sync.Mutex
	var firstError error
	var firstErrorMu sync.Mutex

	var runCtx context.Context
	var cancel context.CancelFunc
	if planCfg.Options.ContinueOnError {
		runCtx = ctx
	} else {
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	type targetWithIndex struct {
		target plan.Target
		index  int
	}

	targets := make([]targetWithIndex, total)
	for i, target := range planCfg.Targets {
		targets[i] = targetWithIndex{target: target, index: i}
	}

	errs := utils.ParallelForEach(runCtx, targets, concurrency, func(ctx context.Context, item targetWithIndex) error {
		targetStart := time.Now()
		target := item.target
		idx := item.index

		o.logger.Info().
			Int("target_idx", idx).
			Str("login", target.Login).
			Int("total", total).
			Msg("Processing target")

		cfg := o.targetConfig(target)

		err := o.runTarget(ctx, cfg)
		targetDuration := time.Since(targetStart)

		resultsMu.Lock()
		results[idx] = PlanResult{
			Target:   target,
			Error:    err,
			Duration: targetDuration,
		}
		resultsMu.Unlock()

		if err != nil {
			o.logger.Error().
				Err(err).
				Int("target_idx", idx).
				Str("login", target.Login).
				Dur("duration", targetDuration).
				Msg("Target backup failed")

			firstErrorMu.Lock()
			if firstError == nil {
				firstError = fmt.Errorf("target %s failed: %w", target.Login, err)
			}
			firstErrorMu.Unlock()

			if cancel != nil {
				cancel()
			}
			return err
		}

		o.logger.Info().
			Int("target_idx", idx).
			Str("login", target.Login).
			Dur("duration", targetDuration).
			Msg("Target backup completed")

		return nil
	})

	if ctx.Err() != nil {
		o.logger.Warn().Msg("Plan execution cancelled")
		return ctx.Err()
	}

	if !planCfg.Options.ContinueOnError && firstError != nil {
		o.logger.Warn().Msg("Stopping execution (continue_on_error=false)")
		return firstError
	}

	if err := utils.FirstError(errs); err != nil && firstError == nil {
		firstError = err
	}

	duration := time.Since(start)
	successCount := 0
	for _, r := range results {
		if r.Error == nil {
			successCount++
		}
	}

	o.logger.Info().
		Dur("total_duration", duration).
		Int("total", total).
		Int("success", successCount).
		Int("failed", total-successCount).
		Msg("Plan execution completed")

	if firstError != nil {
		return fmt.Errorf("plan completed with %d/%d failures: %w",
			total-successCount, total, firstError)
	}

	return nil
}

// targetConfig derives the effective configuration for one plan target.
// Plan fields override the base config; the output directory falls back
// to a per-login subdirectory so targets never share a metadata file.
func (o *Orchestrator) targetConfig(target plan.Target) *config.Config {
	cfg := *o.config

	cfg.Target.Login = target.Login
	if target.Type != "" {
		cfg.Target.Type = target.Type
	}
	if target.Host != "" {
		cfg.Host = target.Host
	}
	if target.Token != "" {
		cfg.Token = config.Token(target.Token)
	}
	if target.Dir != "" {
		cfg.Output.Dir = target.Dir
	} else {
		cfg.Output.Dir = filepath.Join(o.config.Output.Dir, target.Login)
	}
	if len(target.Include) > 0 {
		cfg.Filter.Include = target.Include
	}
	if len(target.Exclude) > 0 {
		cfg.Filter.Exclude = target.Exclude
	}
	if target.Limit != nil {
		cfg.Limit = *target.Limit
	}

	return &cfg
}
