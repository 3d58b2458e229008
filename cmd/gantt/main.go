package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/hylla/gantt/internal/adapters/storage/sqlite"
	"github.com/hylla/gantt/internal/app"
	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/config"
	"github.com/hylla/gantt/internal/imagecache"
	"github.com/hylla/gantt/internal/platform"
	"github.com/hylla/gantt/internal/tui"
	"github.com/spf13/cobra"
)

// version is stamped at build time.
var version = "dev"

// program is the part of tea.Program the CLI drives.
type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// executeRoot runs the command tree; fang renders help, version and errors.
var executeRoot = func(ctx context.Context, root *cobra.Command) error {
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

var now = time.Now

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run builds the command tree and executes it against args.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return executeRoot(ctx, root)
}

// cliOptions holds the persistent flags shared by every command.
type cliOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	docRef     string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{appName: "gantt", devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("GANTT_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("GANTT_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:          "gantt",
		Short:        "Gantt timelines in the terminal",
		Version:      version,
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the most recent plan in the terminal board
  gantt

  # Start a plan from the sample tree and open it
  gantt new "Launch" --sample
  gantt --doc launch

  # Render a plan to an image
  gantt export launch --format png --out launch.png
`),
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runTUI(opts, stderr)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	root.Flags().StringVar(&opts.docRef, "doc", "", "document id, slug or name to open")

	root.AddCommand(
		newPathsCommand(opts, stdout),
		newInitCommand(opts, stdout),
		newListCommand(opts, stdout, stderr),
		newNewCommand(opts, stdout, stderr),
		newImportCommand(opts, stdout, stderr),
		newExportCommand(opts, stdout, stderr),
		newRenameCommand(opts, stdout, stderr),
		newRemoveCommand(opts, stdout, stderr),
		newRestoreCommand(opts, stdout, stderr),
		newServeCommand(opts, stdout, stderr),
	)
	return root
}

// runtimeEnv is everything a document command needs once config and storage are open.
type runtimeEnv struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
	cal        calendar.Calendar
	logger     *runtimeLogger
	repo       *sqlite.Repository
	svc        *app.Service
	stderr     io.Writer
}

func resolvePaths(opts *cliOptions) (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
}

// resolveConfigPath applies flag, then env, then the platform default.
func resolveConfigPath(opts *cliOptions, paths platform.Paths) string {
	if p := strings.TrimSpace(opts.configPath); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("GANTT_CONFIG")); p != "" {
		return p
	}
	return paths.ConfigPath
}

// resolveDBPath returns the database path and whether it overrides the config file.
func resolveDBPath(opts *cliOptions, paths platform.Paths) (string, bool) {
	if p := strings.TrimSpace(opts.dbPath); p != "" {
		return p, true
	}
	if p := strings.TrimSpace(os.Getenv("GANTT_DB_PATH")); p != "" {
		return p, true
	}
	return paths.DBPath, false
}

// openRuntime loads config, configures logging and opens the document store.
func openRuntime(opts *cliOptions, command string, stderr io.Writer) (*runtimeEnv, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}
	configPath := resolveConfigPath(opts, paths)
	dbPath, dbOverridden := resolveDBPath(opts, paths)

	cfg, err := config.Load(configPath, config.Default(paths.DBPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	cfg, err = ensureStartupBootstrap(configPath, cfg, now())
	if err != nil {
		return nil, fmt.Errorf("startup bootstrap: %w", err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// The board owns the terminal; runtime logs go to the dev file only.
		logger.SetConsoleEnabled(false)
	}
	env := &runtimeEnv{paths: paths, configPath: configPath, cfg: cfg, logger: logger, stderr: stderr}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	cal, err := cfg.NewCalendar(now())
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("build calendar: %w", err)
	}
	env.cal = cal

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		env.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	env.repo = repo
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path)

	env.svc = app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		DefaultDeleteMode: app.DeleteMode(cfg.Delete.DefaultMode),
		SeedSample:        cfg.Database.SeedSample,
		Calendar:          cal,
	})
	logger.Debug("application service initialized", "default_delete_mode", cfg.Delete.DefaultMode, "epoch", cal.Epoch.Format(config.DateLayout))
	return env, nil
}

// Close releases the store and the log file.
func (e *runtimeEnv) Close() {
	if e == nil {
		return
	}
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.logger.Warn("sqlite close failed", "db_path", e.cfg.Database.Path, "err", err)
		}
	}
	if err := e.logger.Close(); err != nil && e.logger.shouldLogToSink(e.logger.consoleSink) {
		_, _ = fmt.Fprintf(e.stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// ensureStartupBootstrap pins calendar.epoch on first run so stored day indices keep
// their dates across launches.
func ensureStartupBootstrap(configPath string, cfg config.Config, today time.Time) (config.Config, error) {
	if strings.TrimSpace(cfg.Calendar.Epoch) != "" {
		return cfg, nil
	}
	cfg.Calendar.Epoch = today.Format(config.DateLayout)
	if strings.TrimSpace(configPath) == "" {
		return cfg, nil
	}
	if err := config.Save(configPath, cfg); err != nil {
		return config.Config{}, fmt.Errorf("persist calendar epoch: %w", err)
	}
	return cfg, nil
}

// runTUI opens the terminal board on the selected or default document.
func runTUI(opts *cliOptions, stderr io.Writer) error {
	env, err := openRuntime(opts, "tui", stderr)
	if err != nil {
		return err
	}
	defer env.Close()
	logger := env.logger
	logger.Info("command flow start", "command", "tui", "doc", opts.docRef)

	images := imagecache.New(
		imagecache.WithLogger(logger.Component("images")),
		imagecache.WithTimeout(10*time.Second),
	)
	m := tui.NewModel(
		env.svc,
		tui.WithCalendar(env.cal),
		tui.WithViewSettings(env.cfg.ViewSettings()),
		tui.WithZoomBounds(env.cfg.Canvas.MinZoom, env.cfg.Canvas.MaxZoom),
		tui.WithKeyConfig(tui.KeyConfig(env.cfg.Keys)),
		tui.WithLogger(logger.Component("tui")),
		tui.WithImages(images),
		tui.WithIDGenerator(uuid.NewString),
		tui.WithDocument(opts.docRef),
	)
	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// parseBoolEnv parses a boolean environment variable and reports whether it was set.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
