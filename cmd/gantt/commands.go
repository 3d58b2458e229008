package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/google/uuid"
	"github.com/hylla/gantt/internal/app"
	"github.com/hylla/gantt/internal/config"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/imagecache"
	"github.com/spf13/cobra"
)

func newPathsCommand(opts *cliOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and export paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			dbPath, _ := resolveDBPath(opts, paths)
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", resolveConfigPath(opts, paths))
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", dbPath)
			_, _ = fmt.Fprintf(stdout, "exports: %s\n", paths.ExportDir)
			return nil
		},
	}
}

func newInitCommand(opts *cliOptions, stdout io.Writer) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			configPath := resolveConfigPath(opts, paths)
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("config %q already exists (use --force to overwrite)", configPath)
			}
			dbPath, _ := resolveDBPath(opts, paths)
			cfg := config.Default(dbPath)
			cfg.Calendar.Epoch = now().Format(config.DateLayout)
			if err := config.Save(configPath, cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "wrote %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func newListCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored plans",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(opts, "list", stderr, func(env *runtimeEnv) error {
				docs, err := env.svc.ListDocuments(cmd.Context(), all)
				if err != nil {
					return fmt.Errorf("list documents: %w", err)
				}
				if len(docs) == 0 {
					_, _ = fmt.Fprintln(stdout, "no plans")
					return nil
				}
				_, _ = fmt.Fprintln(stdout, documentTable(docs))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include archived plans")
	return cmd
}

// documentTable renders docs as a bordered table.
func documentTable(docs []domain.Document) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "SLUG", "NAME", "TASKS", "UPDATED")
	for _, d := range docs {
		name := d.Name
		if d.ArchivedAt != nil {
			name += " (archived)"
		}
		t = t.Row(d.ID, d.Slug, name, fmt.Sprint(countTasks(d.Tree)), d.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return t.String()
}

func countTasks(tree domain.Tree) int {
	n := 0
	tree.Walk(func(node domain.Node, _ int) bool {
		n += len(node.Tasks)
		return true
	})
	return n
}

func newNewCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		description string
		sample      bool
	)
	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, "new", stderr, func(env *runtimeEnv) error {
				in := app.CreateDocumentInput{Name: args[0], Description: description}
				if sample {
					in.Tree = app.SampleTree(uuid.NewString, env.cal)
				}
				doc, err := env.svc.CreateDocument(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("create document: %w", err)
				}
				env.logger.Info("document created", "id", doc.ID, "slug", doc.Slug, "sample", sample)
				_, _ = fmt.Fprintf(stdout, "created %s (%s)\n", doc.Name, doc.Slug)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "plan description")
	cmd.Flags().BoolVar(&sample, "sample", false, "start from the sample plan")
	return cmd
}

func newImportCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		name   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a JSON or YAML snapshot as a new plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPath := args[0]
			f, err := snapshotFormat(format, inPath)
			if err != nil {
				return err
			}
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			return withRuntime(opts, "import", stderr, func(env *runtimeEnv) error {
				doc, repairs, err := env.svc.ImportDocument(cmd.Context(), name, content, f)
				if err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}
				for _, r := range repairs {
					env.logger.Warn("snapshot repaired", "id", doc.ID, "repair", r)
					_, _ = fmt.Fprintf(stdout, "repaired: %s\n", r)
				}
				_, _ = fmt.Fprintf(stdout, "imported %s (%s)\n", doc.Name, doc.Slug)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "plan name (defaults to the snapshot name)")
	cmd.Flags().StringVar(&format, "format", "", "snapshot format: json|yaml (defaults to the file extension)")
	return cmd
}

// snapshotFormat uses raw when set, else the extension of path.
func snapshotFormat(raw, path string) (app.Format, error) {
	if strings.TrimSpace(raw) != "" {
		return app.ParseFormat(raw)
	}
	return app.FormatFromPath(path)
}

// exportFlags are the knobs of `gantt export`.
type exportFlags struct {
	out    string
	format string
	width  int
	height int
	zoom   float64
	scale  string
}

func newExportCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "export DOC",
		Short: "Export a plan as a snapshot or an image",
		Long: strings.TrimSpace(`
Export writes json or yaml snapshots (stdout by default) and png or svg renders of
the fully expanded plan (the exports directory by default). The format comes from
--format, then the --out extension, then export.format in the config.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, "export", stderr, func(env *runtimeEnv) error {
				return runExport(cmd.Context(), env, args[0], flags, stdout)
			})
		},
	}
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "output file path ('-' for stdout)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "json|yaml|png|svg")
	cmd.Flags().IntVar(&flags.width, "width", 0, "image width in pixels (config export.width when 0)")
	cmd.Flags().IntVar(&flags.height, "height", -1, "image height in pixels (0 fits the plan)")
	cmd.Flags().Float64Var(&flags.zoom, "zoom", 1, "image zoom factor")
	cmd.Flags().StringVar(&flags.scale, "scale", "", "time axis: days|weeks")
	return cmd
}

// runExport resolves the output format and writes either a snapshot or an image.
func runExport(ctx context.Context, env *runtimeEnv, ref string, flags exportFlags, stdout io.Writer) error {
	doc, err := env.svc.FindDocument(ctx, ref)
	if err != nil {
		return fmt.Errorf("find document: %w", err)
	}
	raw := strings.TrimSpace(flags.format)
	if raw == "" && flags.out != "" && flags.out != "-" {
		raw = strings.TrimPrefix(filepath.Ext(flags.out), ".")
	}
	if raw == "" {
		raw = env.cfg.Export.Format
	}

	if f, err := app.ParseFormat(raw); err == nil {
		data, err := env.svc.ExportDocument(ctx, doc.ID, f)
		if err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}
		out := flags.out
		if out == "" {
			out = "-"
		}
		env.logger.Info("snapshot export", "id", doc.ID, "format", f, "out", out)
		return writeOutput(out, data, stdout)
	}

	imgFormat, err := app.ParseImageFormat(raw)
	if err != nil {
		return err
	}
	out := flags.out
	if out == "" {
		out = filepath.Join(env.paths.ExportDir, doc.Slug+"."+string(imgFormat))
	}
	width := flags.width
	if width <= 0 {
		width = env.cfg.Export.Width
	}
	height := flags.height
	if height < 0 {
		height = env.cfg.Export.Height
	}
	scale := strings.TrimSpace(flags.scale)
	if scale == "" {
		scale = env.cfg.Export.Scale
	}

	images := imagecache.New(
		imagecache.WithLogger(env.logger.Component("images")),
		imagecache.WithTimeout(10*time.Second),
	)
	preloadImages(ctx, env, images, doc.Tree)

	var buf bytes.Buffer
	err = app.ExportImage(&buf, doc.Tree, env.cal, app.ExportOptions{
		Format:   imgFormat,
		Width:    width,
		Height:   height,
		Zoom:     flags.zoom,
		Dims:     env.cfg.Dimensions(),
		Settings: env.cfg.ViewSettings(),
		Today:    now(),
		Images:   images,
		Scale:    hittest.TimeScale(strings.ToLower(scale)),
	})
	if err != nil {
		return fmt.Errorf("export image: %w", err)
	}
	env.logger.Info("image export", "id", doc.ID, "format", imgFormat, "out", out, "width", width, "height", height)
	if err := writeOutput(out, buf.Bytes(), stdout); err != nil {
		return err
	}
	if out != "-" {
		_, _ = fmt.Fprintf(stdout, "wrote %s\n", out)
	}
	return nil
}

// preloadImages fetches every node thumbnail so the render does not race the loader.
func preloadImages(ctx context.Context, env *runtimeEnv, images *imagecache.Cache, tree domain.Tree) {
	tree.Walk(func(n domain.Node, _ int) bool {
		if n.ImageURL == "" {
			return true
		}
		if err := images.Load(ctx, n.ImageURL); err != nil {
			env.logger.Warn("thumbnail load failed", "node", n.ID, "url", n.ImageURL, "err", err)
		}
		return true
	})
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("write to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

func newRenameCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "rename DOC NAME",
		Short: "Rename a plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, "rename", stderr, func(env *runtimeEnv) error {
				doc, err := env.svc.FindDocument(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("find document: %w", err)
				}
				doc, err = env.svc.RenameDocument(cmd.Context(), doc.ID, args[1])
				if err != nil {
					return fmt.Errorf("rename document: %w", err)
				}
				_, _ = fmt.Fprintf(stdout, "renamed to %s (%s)\n", doc.Name, doc.Slug)
				return nil
			})
		},
	}
}

func newRemoveCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	var hard bool
	cmd := &cobra.Command{
		Use:     "rm DOC",
		Aliases: []string{"delete"},
		Short:   "Archive a plan, or delete it with --hard",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, "rm", stderr, func(env *runtimeEnv) error {
				doc, err := env.svc.FindDocument(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("find document: %w", err)
				}
				var mode app.DeleteMode
				if hard {
					mode = app.DeleteModeHard
				}
				if err := env.svc.DeleteDocument(cmd.Context(), doc.ID, mode); err != nil {
					return fmt.Errorf("delete document: %w", err)
				}
				verb := "archived"
				if hard || app.DeleteMode(env.cfg.Delete.DefaultMode) == app.DeleteModeHard {
					verb = "deleted"
				}
				_, _ = fmt.Fprintf(stdout, "%s %s\n", verb, doc.Name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&hard, "hard", false, "delete permanently instead of archiving")
	return cmd
}

func newRestoreCommand(opts *cliOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "restore DOC",
		Short: "Restore an archived plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(opts, "restore", stderr, func(env *runtimeEnv) error {
				doc, err := env.svc.FindDocument(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("find document: %w", err)
				}
				if doc.ArchivedAt == nil {
					return fmt.Errorf("%s is not archived", doc.Name)
				}
				doc, err = env.svc.RestoreDocument(cmd.Context(), doc.ID)
				if err != nil {
					return fmt.Errorf("restore document: %w", err)
				}
				_, _ = fmt.Fprintf(stdout, "restored %s\n", doc.Name)
				return nil
			})
		},
	}
}

// withRuntime opens the runtime, runs fn and logs the command outcome.
func withRuntime(opts *cliOptions, command string, stderr io.Writer, fn func(*runtimeEnv) error) error {
	env, err := openRuntime(opts, command, stderr)
	if err != nil {
		return err
	}
	defer env.Close()
	env.logger.Info("command flow start", "command", command)
	if err := fn(env); err != nil {
		if !errors.Is(err, app.ErrNotFound) {
			env.logger.Error("command flow failed", "command", command, "err", err)
		}
		return fmt.Errorf("run %s command: %w", command, err)
	}
	env.logger.Info("command flow complete", "command", command)
	return nil
}
