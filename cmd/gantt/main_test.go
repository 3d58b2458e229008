package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/hylla/gantt/internal/config"
	"github.com/hylla/gantt/internal/tui"
	"github.com/spf13/cobra"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("GANTT_DEV_MODE", "false")
	executeRoot = func(ctx context.Context, root *cobra.Command) error {
		return root.ExecuteContext(ctx)
	}
	now = func() time.Time {
		return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	}
	os.Exit(m.Run())
}

type fakeProgram struct {
	runErr error
}

func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// cliEnv isolates platform paths and returns the common --config/--db args.
func cliEnv(t *testing.T) (string, []string) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("GANTT_CONFIG", "")
	t.Setenv("GANTT_DB_PATH", "")
	return tmp, []string{"--config", filepath.Join(tmp, "gantt.toml"), "--db", filepath.Join(tmp, "gantt.db")}
}

func runCLI(t *testing.T, base []string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), append(append([]string{}, base...), args...), &out, io.Discard)
	return out.String(), err
}

func TestRunVersion(t *testing.T) {
	out, err := runCLI(t, nil, "--version")
	if err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out, "gantt") || !strings.Contains(out, version) {
		t.Fatalf("expected version output, got %q", out)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	_, base := cliEnv(t)
	if _, err := runCLI(t, base, "frobnicate"); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestRunPathsCommand(t *testing.T) {
	tmp, base := cliEnv(t)
	out, err := runCLI(t, base, "paths")
	if err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	for _, want := range []string{
		"app: gantt",
		"dev_mode: false",
		"config: " + filepath.Join(tmp, "gantt.toml"),
		"db: " + filepath.Join(tmp, "gantt.db"),
		"exports: ",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in paths output, got %q", want, out)
		}
	}
}

func TestRunConfigAndDBEnvOverrides(t *testing.T) {
	tmp, _ := cliEnv(t)
	cfgPath := filepath.Join(tmp, "env.toml")
	dbPath := filepath.Join(tmp, "env.db")
	t.Setenv("GANTT_CONFIG", cfgPath)
	t.Setenv("GANTT_DB_PATH", dbPath)
	out, err := runCLI(t, nil, "paths")
	if err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	if !strings.Contains(out, "config: "+cfgPath) || !strings.Contains(out, "db: "+dbPath) {
		t.Fatalf("expected env overrides in paths output, got %q", out)
	}
}

func TestRunInitWritesConfigOnce(t *testing.T) {
	tmp, base := cliEnv(t)
	if _, err := runCLI(t, base, "init"); err != nil {
		t.Fatalf("run(init) error = %v", err)
	}
	cfgPath := filepath.Join(tmp, "gantt.toml")
	cfg, err := config.Load(cfgPath, config.Default("unused.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Calendar.Epoch != "2026-03-02" {
		t.Fatalf("expected pinned epoch, got %q", cfg.Calendar.Epoch)
	}
	if cfg.Database.Path != filepath.Join(tmp, "gantt.db") {
		t.Fatalf("expected db path from flag, got %q", cfg.Database.Path)
	}
	if _, err := runCLI(t, base, "init"); err == nil {
		t.Fatal("expected init to refuse an existing config")
	}
	if _, err := runCLI(t, base, "init", "--force"); err != nil {
		t.Fatalf("run(init --force) error = %v", err)
	}
}

func TestRunPinsCalendarEpochOnFirstRun(t *testing.T) {
	tmp, base := cliEnv(t)
	if _, err := runCLI(t, base, "list"); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	cfg, err := config.Load(filepath.Join(tmp, "gantt.toml"), config.Default("unused.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Calendar.Epoch != "2026-03-02" {
		t.Fatalf("expected epoch pinned on first run, got %q", cfg.Calendar.Epoch)
	}
	if cfg.Database.Path == filepath.Join(tmp, "gantt.db") {
		t.Fatal("expected --db override to stay out of the persisted config")
	}
}

func TestRunDocumentLifecycle(t *testing.T) {
	_, base := cliEnv(t)

	out, err := runCLI(t, base, "list")
	if err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	if !strings.Contains(out, "no plans") {
		t.Fatalf("expected empty listing, got %q", out)
	}

	out, err = runCLI(t, base, "new", "Launch Plan", "--sample")
	if err != nil {
		t.Fatalf("run(new) error = %v", err)
	}
	if !strings.Contains(out, "created Launch Plan (launch-plan)") {
		t.Fatalf("unexpected new output %q", out)
	}

	out, err = runCLI(t, base, "list")
	if err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	if !strings.Contains(out, "launch-plan") || !strings.Contains(out, "Launch Plan") {
		t.Fatalf("expected plan in listing, got %q", out)
	}

	if _, err := runCLI(t, base, "rename", "launch-plan", "Release"); err != nil {
		t.Fatalf("run(rename) error = %v", err)
	}
	if _, err := runCLI(t, base, "rm", "release"); err != nil {
		t.Fatalf("run(rm) error = %v", err)
	}
	out, err = runCLI(t, base, "list")
	if err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	if strings.Contains(out, "Release") {
		t.Fatalf("expected archived plan hidden, got %q", out)
	}
	out, err = runCLI(t, base, "list", "--all")
	if err != nil {
		t.Fatalf("run(list --all) error = %v", err)
	}
	if !strings.Contains(out, "Release (archived)") {
		t.Fatalf("expected archived plan with --all, got %q", out)
	}
	if _, err := runCLI(t, base, "restore", "release"); err != nil {
		t.Fatalf("run(restore) error = %v", err)
	}
	if _, err := runCLI(t, base, "restore", "release"); err == nil {
		t.Fatal("expected restore of an active plan to fail")
	}

	if _, err := runCLI(t, base, "rm", "release", "--hard"); err != nil {
		t.Fatalf("run(rm --hard) error = %v", err)
	}
	out, err = runCLI(t, base, "list", "--all")
	if err != nil {
		t.Fatalf("run(list --all) error = %v", err)
	}
	if !strings.Contains(out, "no plans") {
		t.Fatalf("expected hard delete to remove plan, got %q", out)
	}
	if _, err := runCLI(t, base, "rename", "release", "Again"); err == nil {
		t.Fatal("expected rename of a missing plan to fail")
	}
}

func TestRunExportAndImportSnapshots(t *testing.T) {
	tmp, base := cliEnv(t)
	if _, err := runCLI(t, base, "new", "Launch", "--sample"); err != nil {
		t.Fatalf("run(new) error = %v", err)
	}

	yamlOut, err := runCLI(t, base, "export", "launch", "--format", "yaml")
	if err != nil {
		t.Fatalf("run(export yaml) error = %v", err)
	}
	if !strings.Contains(yamlOut, "name: Launch") {
		t.Fatalf("expected yaml snapshot on stdout, got %q", yamlOut)
	}

	jsonPath := filepath.Join(tmp, "out", "launch.json")
	if _, err := runCLI(t, base, "export", "launch", "--out", jsonPath); err != nil {
		t.Fatalf("run(export json) error = %v", err)
	}
	content, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), `"name": "Launch"`) {
		t.Fatalf("expected json snapshot file, got %q", content)
	}

	out, err := runCLI(t, base, "import", jsonPath, "--name", "Copy")
	if err != nil {
		t.Fatalf("run(import) error = %v", err)
	}
	if !strings.Contains(out, "imported Copy (copy)") {
		t.Fatalf("unexpected import output %q", out)
	}
	copyOut, err := runCLI(t, base, "export", "copy", "--format", "yaml")
	if err != nil {
		t.Fatalf("run(export copy) error = %v", err)
	}
	if strings.Count(copyOut, "content:") != strings.Count(yamlOut, "content:") {
		t.Fatalf("expected imported copy to keep every node and task")
	}

	badPath := filepath.Join(tmp, "plan.txt")
	if err := os.WriteFile(badPath, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := runCLI(t, base, "import", badPath); err == nil {
		t.Fatal("expected unknown import format error")
	}
	if _, err := runCLI(t, base, "import", filepath.Join(tmp, "missing.json")); err == nil {
		t.Fatal("expected missing import file error")
	}
}

func TestRunExportImages(t *testing.T) {
	tmp, base := cliEnv(t)
	if _, err := runCLI(t, base, "new", "Launch", "--sample"); err != nil {
		t.Fatalf("run(new) error = %v", err)
	}

	svgPath := filepath.Join(tmp, "launch.svg")
	out, err := runCLI(t, base, "export", "launch", "--out", svgPath, "--scale", "weeks")
	if err != nil {
		t.Fatalf("run(export svg) error = %v", err)
	}
	if !strings.Contains(out, "wrote "+svgPath) {
		t.Fatalf("unexpected export output %q", out)
	}
	svg, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), `width="1600"`) {
		t.Fatalf("expected 1600px svg document, got %.120q", svg)
	}

	pngPath := filepath.Join(tmp, "launch.png")
	if _, err := runCLI(t, base, "export", "launch", "--format", "png", "--out", pngPath, "--width", "640", "--height", "240"); err != nil {
		t.Fatalf("run(export png) error = %v", err)
	}
	png, err := os.ReadFile(pngPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("expected png signature, got %q", png[:min(8, len(png))])
	}

	if _, err := runCLI(t, base, "export", "launch", "--format", "gif"); err == nil {
		t.Fatal("expected unknown export format error")
	}
}

func TestRunStartsProgram(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	var got tea.Model
	programFactory = func(m tea.Model) program {
		got = m
		return fakeProgram{}
	}

	_, base := cliEnv(t)
	if _, err := runCLI(t, base, "--doc", "launch"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, ok := got.(tui.Model); !ok {
		t.Fatalf("expected tui.Model, got %T", got)
	}
}

func TestRunProgramError(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(tea.Model) program { return fakeProgram{runErr: errors.New("boom")} }

	_, base := cliEnv(t)
	if _, err := runCLI(t, base); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected program error, got %v", err)
	}
}

func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	tmp, base := cliEnv(t)
	cfgPath := filepath.Join(tmp, "gantt.toml")
	content := "[calendar]\nepoch = \"2026-03-02\"\n\n[logging]\nlevel = \"loud\"\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := runCLI(t, base, "list"); err == nil {
		t.Fatal("expected invalid logging level error")
	}
}

func TestRunDevModeCreatesWorkspaceLogFile(t *testing.T) {
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(tea.Model) program { return fakeProgram{} }

	workspace, base := cliEnv(t)
	t.Chdir(workspace)

	var stderr bytes.Buffer
	if err := run(context.Background(), append([]string{"--dev"}, base...), io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.TrimSpace(stderr.String()); got != "" {
		t.Fatalf("expected no runtime stderr output in TUI mode, got %q", got)
	}

	logPath := filepath.Join(workspace, ".gantt", "log", "gantt-20260302.log")
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "starting tui program loop") {
		t.Fatalf("expected runtime log file to include TUI lifecycle entries, got %q", content)
	}
}

func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "cmd", "gantt")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); filepath.Clean(got) != filepath.Clean(root) {
		t.Fatalf("expected workspace root %q, got %q", root, got)
	}
}

func TestDevLogFilePathResolvesAgainstWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "internal", "tui")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	t.Chdir(nested)

	got, err := devLogFilePath(".gantt/log", "gantt dev", time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	normalize := func(p string) string {
		return strings.TrimPrefix(filepath.Clean(p), "/private")
	}
	want := filepath.Join(root, ".gantt", "log", "gantt-dev-20260222.log")
	if normalize(got) != normalize(want) {
		t.Fatalf("expected log path %q, got %q", want, got)
	}
}

func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"":          "gantt",
		"  ":        "gantt",
		"a/b":       "a-b",
		"team plan": "team-plan",
		"/x:":       "x",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("GANTT_TEST_BOOL", "")
	if _, ok := parseBoolEnv("GANTT_TEST_BOOL"); ok {
		t.Fatal("expected unset env to report not ok")
	}
	t.Setenv("GANTT_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("GANTT_TEST_BOOL"); !ok || !v {
		t.Fatalf("expected true, got %t %t", v, ok)
	}
	t.Setenv("GANTT_TEST_BOOL", "nope")
	if _, ok := parseBoolEnv("GANTT_TEST_BOOL"); ok {
		t.Fatal("expected invalid bool to report not ok")
	}
}

func TestEnsureStartupBootstrapKeepsExistingEpoch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gantt.toml")
	cfg := config.Default("gantt.db")
	cfg.Calendar.Epoch = "2025-01-06"
	got, err := ensureStartupBootstrap(path, cfg, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ensureStartupBootstrap() error = %v", err)
	}
	if got.Calendar.Epoch != "2025-01-06" {
		t.Fatalf("expected existing epoch, got %q", got.Calendar.Epoch)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no config write, stat err = %v", err)
	}
}

func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.Default("/tmp/gantt.db").Logging

	logger, err := newRuntimeLogger(&console, "gantt", false, cfg, now)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}

	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	logger.Component("tui").Info("component during")
	logger.SetConsoleEnabled(true)
	logger.Info("after")

	out := console.String()
	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Fatalf("expected console log to include before and after, got %q", out)
	}
	if strings.Contains(out, "during") {
		t.Fatalf("expected muted console log to omit 'during', got %q", out)
	}
}
