package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quantmind-br/yuqueback-go/internal/app"
	"github.com/quantmind-br/yuqueback-go/internal/archive"
	"github.com/quantmind-br/yuqueback-go/internal/config"
	"github.com/quantmind-br/yuqueback-go/internal/plan"
	"github.com/quantmind-br/yuqueback-go/internal/utils"
	"github.com/quantmind-br/yuqueback-go/pkg/version"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "yuqueback [path]",
	Short: "Incremental Yuque knowledge base backup",
	Long: `YuqueBack archives the documents of a Yuque group or user into
timestamped local snapshots. Runs are incremental: only documents whose
revision changed since the previous backup are fetched again.

The optional path argument overrides the configured output directory.`,
	Version: version.Short(),
	Args:    cobra.MaximumNArgs(1),
	RunE:    run,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.yuqueback/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Target flags
	rootCmd.PersistentFlags().String("host", "", "Yuque host, e.g. https://acme.yuque.com")
	rootCmd.PersistentFlags().String("token", "", "API token sent as X-Auth-Token")
	rootCmd.PersistentFlags().String("type", "groups", "Target type: groups or users")
	rootCmd.PersistentFlags().String("login", "", "Login whose books are backed up")

	// Pacing flags
	rootCmd.PersistentFlags().IntP("limit", "l", config.DefaultLimit, "Max requests per second (0 waits a full second before each)")
	rootCmd.PersistentFlags().Int("page-size", config.DefaultPageSize, "Listing page size")
	rootCmd.PersistentFlags().Int("chunk-size", config.DefaultChunkSize, "Parallel fan-out per book and document batch")

	// Selection flags
	rootCmd.PersistentFlags().StringSlice("include", nil, "Book slug globs to include")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Book slug globs to exclude")

	// Behavior flags
	rootCmd.PersistentFlags().Bool("no-assets", false, "Skip mirroring embedded attachments")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Skip the attachment cache")
	rootCmd.PersistentFlags().Bool("dry-run", false, "List what would be backed up without writing")
	rootCmd.PersistentFlags().Bool("progress", false, "Show a progress bar")

	// Bind flags to viper
	_ = viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("target.type", rootCmd.PersistentFlags().Lookup("type"))
	_ = viper.BindPFlag("target.login", rootCmd.PersistentFlags().Lookup("login"))
	_ = viper.BindPFlag("limit", rootCmd.PersistentFlags().Lookup("limit"))
	_ = viper.BindPFlag("page_size", rootCmd.PersistentFlags().Lookup("page-size"))
	_ = viper.BindPFlag("chunk_size", rootCmd.PersistentFlags().Lookup("chunk-size"))
	_ = viper.BindPFlag("filter.include", rootCmd.PersistentFlags().Lookup("include"))
	_ = viper.BindPFlag("filter.exclude", rootCmd.PersistentFlags().Lookup("exclude"))

	// Archive flags
	archiveCmd.Flags().Duration("older-than", archive.DefaultMaxAge, "Age past which a run is archived")

	// Add subcommands
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func newCLILogger() *utils.Logger {
	logLevel := "info"
	if verbose {
		logLevel = "debug"
	}
	return utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  "pretty",
		Verbose: verbose,
	})
}

// applyFlagOverrides folds the negation flags into the configuration.
// They are deliberately not bound to viper: a default "false" must not
// shadow an enabled setting from the config file.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if noAssets, _ := cmd.Flags().GetBool("no-assets"); noAssets {
		cfg.Assets.Enabled = false
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Assets.Cache = false
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := newCLILogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if len(args) == 1 {
		cfg.Output.Dir = args[0]
	}
	applyFlagOverrides(cmd, cfg)

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	progress, _ := cmd.Flags().GetBool("progress")

	ctx, cancel := signalContext(log)
	defer cancel()

	orchestrator, err := app.NewOrchestrator(app.OrchestratorOptions{
		Config:   cfg,
		Verbose:  verbose,
		DryRun:   dryRun,
		Progress: progress,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	defer orchestrator.Close()

	return orchestrator.Run(ctx)
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext(log *utils.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info().Msg("Shutting down gracefully...")
		cancel()
	}()

	return ctx, cancel
}

var planCmd = &cobra.Command{
	Use:   "plan <file>",
	Short: "Back up every target from a plan file",
	Long: `Runs backups for all targets listed in a YAML or JSON plan file.
Plan fields override the main configuration per target; targets without
an explicit directory are written under <output dir>/<login>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newCLILogger()

		planCfg, err := plan.NewLoader().Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlagOverrides(cmd, cfg)

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		progress, _ := cmd.Flags().GetBool("progress")

		ctx, cancel := signalContext(log)
		defer cancel()

		orchestrator, err := app.NewOrchestrator(app.OrchestratorOptions{
			Config:   cfg,
			Verbose:  verbose,
			DryRun:   dryRun,
			Progress: progress,
		})
		if err != nil {
			return fmt.Errorf("failed to create orchestrator: %w", err)
		}
		defer orchestrator.Close()

		return orchestrator.RunPlan(ctx, planCfg)
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive [path]",
	Short: "Compress old backup runs",
	Long: `Compresses run directories older than the retention window into
.tar.zst archives and removes the originals. The path argument overrides
the configured output directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newCLILogger()

		// Archiving is local-only, so a missing or incomplete config
		// must not block it when a path is given.
		dir := config.DefaultOutputDir
		if len(args) == 1 {
			dir = args[0]
		} else if cfg, err := config.Load(); err == nil {
			dir = cfg.Output.Dir
		} else {
			log.Debug().Err(err).Msg("Config unavailable, archiving the current directory")
		}

		olderThan, _ := cmd.Flags().GetDuration("older-than")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		archiver := archive.New(archive.Options{
			BaseDir: utils.ExpandPath(dir),
			MaxAge:  olderThan,
			DryRun:  dryRun,
			Logger:  log,
		})

		count, err := archiver.Run()
		if err != nil {
			return fmt.Errorf("archiving failed: %w", err)
		}

		switch {
		case dryRun:
			fmt.Printf("%d run(s) would be archived.\n", count)
		case count == 0:
			fmt.Println("No runs old enough to archive.")
		default:
			fmt.Printf("Archived %d run(s).\n", count)
		}
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and environment",
	Long:  "Verifies that configuration, connectivity and local directories are ready for backups.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Checking backup prerequisites...")
		allPassed := true

		// Check 1: Configuration
		fmt.Print("  Configuration: ")
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("FAILED (%v)\n", err)
			allPassed = false
		} else {
			fmt.Println("OK")
		}

		// Check 2: Host reachability
		fmt.Print("  Yuque host: ")
		switch {
		case cfg == nil:
			fmt.Println("SKIPPED (no config)")
		case checkHost(cfg.Host):
			fmt.Printf("OK (%s)\n", cfg.Host)
		default:
			fmt.Println("FAILED (unreachable)")
			allPassed = false
		}

		// Check 3: Output directory
		fmt.Print("  Output directory: ")
		outputDir := config.DefaultOutputDir
		if cfg != nil {
			outputDir = cfg.Output.Dir
		}
		if checkWritable(utils.ExpandPath(outputDir)) {
			fmt.Printf("OK (%s)\n", outputDir)
		} else {
			fmt.Println("FAILED (not writable)")
			allPassed = false
		}

		// Check 4: Attachment cache directory
		fmt.Print("  Cache directory: ")
		cacheDir := config.CacheDir()
		if cfg != nil && cfg.Assets.CacheDir != "" {
			cacheDir = cfg.Assets.CacheDir
		}
		if checkDir(utils.ExpandPath(cacheDir)) {
			fmt.Printf("OK (%s)\n", cacheDir)
		} else {
			fmt.Println("WARN (will be created on first use)")
		}

		fmt.Println()
		if allPassed {
			fmt.Println("All critical checks passed!")
		} else {
			fmt.Println("Some checks failed. Please resolve the issues above.")
		}
		return nil
	},
}

// checkHost reports whether the API host answers at all. Any HTTP
// response counts; an unauthenticated probe is expected to be rejected.
func checkHost(host string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, host, nil)
	if err != nil {
		return false
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// checkWritable checks if a temp file can be created in the directory
func checkWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".yuqueback_write_*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// checkDir checks if the directory exists
func checkDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
