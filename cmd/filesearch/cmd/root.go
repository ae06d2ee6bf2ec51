// Package cmd provides the CLI commands for filesearch.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aharper/filesearch/internal/apperrors"
	"github.com/aharper/filesearch/internal/config"
	"github.com/aharper/filesearch/internal/index"
	"github.com/aharper/filesearch/internal/indexer"
	"github.com/aharper/filesearch/internal/logging"
	"github.com/aharper/filesearch/internal/preflight"
	"github.com/aharper/filesearch/internal/query"
	"github.com/aharper/filesearch/internal/state"
	"github.com/aharper/filesearch/internal/walker"
	"github.com/aharper/filesearch/internal/watcher"
	"github.com/aharper/filesearch/pkg/version"
)

var (
	debugMode     bool
	rootFlag      string
	skipPreflight bool
	loggingCleanup func()
)

const dataDirName = ".filesearch"

// NewRootCmd creates the root command for the filesearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "filesearch",
		Short:   "Local file-name search engine",
		Version: version.Version,
		Long: `filesearch indexes file names under a directory tree and keeps
the index current by watching the filesystem for changes.

Run 'filesearch' with no subcommand to build the index (if needed) and
keep it live, watching for changes until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	cmd.SetVersionTemplate("filesearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "Directory tree to index")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.filesearch/logs/")
	cmd.PersistentFlags().BoolVar(&skipPreflight, "skip-check", false, "Skip pre-flight system checks")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func startLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// app bundles the opened stores and derived configuration shared by every
// subcommand that touches the index. Callers must close it.
type app struct {
	root    string
	dataDir string
	cfg     *config.Config
	state   *state.Store
	index   *index.Store
	exclude *walker.ExclusionSet
}

func (a *app) Close() {
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.state != nil {
		_ = a.state.Close()
	}
}

// openApp resolves the target root, loads static configuration, runs
// preflight checks, and opens the State Store and Index Store in that
// order: logging is already set up by the time this runs, and a failed
// store open is fatal.
func openApp(ctx context.Context, rootPath string) (*app, error) {
	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	dataDir := cfg.IndexDir
	if dataDir == "" {
		dataDir = filepath.Join(root, dataDirName)
	}
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(root, dataDir)
	}

	if !skipPreflight {
		checker := preflight.New()
		results := checker.RunAll(ctx, root)
		if checker.HasCriticalFailures(results) {
			checker.PrintResults(results)
			return nil, fmt.Errorf("system check failed, run with --skip-check to bypass")
		}
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	st, err := state.Open(filepath.Join(dataDir, "anything.db"))
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	idx, err := index.Open(filepath.Join(dataDir, "tantivy"))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open index store: %w", err)
	}

	if err := st.Set(state.KeyFreshnessWindowDays, strconv.Itoa(cfg.FreshnessWindowDays)); err != nil {
		slog.Warn("freshness_window_publish_failed", slog.String("error", err.Error()))
	}

	return &app{
		root:    root,
		dataDir: dataDir,
		cfg:     cfg,
		state:   st,
		index:   idx,
		exclude: walker.NewExclusionSet([]string{filepath.Join(root, ".git"), filepath.Join(root, dataDirName), dataDir}),
	}, nil
}

// buildIndexer constructs the Indexer for this app's stores and roots.
func (a *app) buildIndexer() (*indexer.Indexer, error) {
	return indexer.New(indexer.Dependencies{
		Index:   a.index,
		State:   a.state,
		Roots:   []string{a.root},
		Exclude: a.exclude,
		Version: version.Version,
	})
}

// runServe implements the default flow: bulk build, then start the
// Query Service and Watcher and block until interrupted. There is no UI
// in this repository, so SIGINT/SIGTERM stands in for "block on the UI
// thread."
func runServe(ctx context.Context, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, rootFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	ix, err := a.buildIndexer()
	if err != nil {
		return err
	}

	if err := ix.InitIndex(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err)
	}
	a.index = ix.Index()

	requests := make(chan query.Request)
	results := make(chan query.Result, 1)
	qsvc, err := query.New(query.Dependencies{
		Index:     a.index,
		RequestRx: requests,
		ResultTx:  results,
	})
	if err != nil {
		return err
	}
	qsvc.Start(ctx)

	w, err := watcher.New(watcher.Dependencies{
		Indexer: ix,
		State:   a.state,
		Roots:   []string{a.root},
		Exclude: a.exclude,
		Options: watcher.Options{DebounceWindow: a.cfg.DebounceWindow}.WithDefaults(),
	})
	if err != nil {
		return err
	}

	watcherErrs := make(chan error, 1)
	go func() {
		watcherErrs <- w.Start(ctx)
	}()
	defer w.Stop()

	slog.Info("filesearch_ready", slog.String("root", a.root))
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "watching %s (index: %s), press Ctrl+C to stop\n", a.root, a.dataDir)

	select {
	case <-ctx.Done():
		slog.Info("filesearch_shutdown")
		return nil
	case err := <-watcherErrs:
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return apperrors.Wrap(apperrors.ErrCodeWatcherFailed, err)
		}
		slog.Info("filesearch_shutdown")
		return nil
	}
}
