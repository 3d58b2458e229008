package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/viewport"
	toml "github.com/pelletier/go-toml/v2"
)

// DateLayout is the on-disk format of calendar.epoch.
const DateLayout = "2006-01-02"

type DeleteMode string

const (
	DeleteModeArchive DeleteMode = "archive"
	DeleteModeHard    DeleteMode = "hard"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Delete   DeleteConfig   `toml:"delete"`
	Calendar CalendarConfig `toml:"calendar"`
	Canvas   CanvasConfig   `toml:"canvas"`
	View     ViewConfig     `toml:"view"`
	Export   ExportConfig   `toml:"export"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	Keys     KeyConfig      `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
	// SeedSample fills the first document with the sample plan.
	SeedSample bool `toml:"seed_sample"`
}

type DeleteConfig struct {
	DefaultMode DeleteMode `toml:"default_mode"`
}

// CalendarConfig anchors day index 0. An empty epoch means "today at startup".
type CalendarConfig struct {
	Epoch     string   `toml:"epoch"`
	Weekend   []string `toml:"weekend"`
	TotalDays int      `toml:"total_days"`
}

type CanvasConfig struct {
	DayWidth     float64 `toml:"day_width"`
	RowHeight    float64 `toml:"row_height"`
	TaskHeight   float64 `toml:"task_height"`
	HeaderHeight float64 `toml:"header_height"`
	SidebarWidth float64 `toml:"sidebar_width"`
	MinZoom      float64 `toml:"min_zoom"`
	MaxZoom      float64 `toml:"max_zoom"`
}

type ViewConfig struct {
	ShowLinks      bool `toml:"show_links"`
	LinkMode       bool `toml:"link_mode"`
	ShowGrid       bool `toml:"show_grid"`
	ShowWeekends   bool `toml:"show_weekends"`
	ShowProgress   bool `toml:"show_progress"`
	ShowAuthors    bool `toml:"show_authors"`
	ShowMilestones bool `toml:"show_milestones"`
	ShowTimestamps bool `toml:"show_timestamps"`
	ShowColors     bool `toml:"show_colors"`
	ShowTaskIDs    bool `toml:"show_task_ids"`
	ShowTodayLine  bool `toml:"show_today_line"`
	ShowHoverTask  bool `toml:"show_hover_task"`
}

type ExportConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"` // 0 fits the expanded tree
	Format string `toml:"format"` // png | svg
	Scale  string `toml:"scale"`  // days | weeks
}

// ServerConfig holds `gantt serve` defaults.
type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type KeyConfig struct {
	AddTask     string `toml:"add_task"`
	LinkTasks   string `toml:"link_tasks"`
	Search      string `toml:"search"`
	Save        string `toml:"save"`
	CopyTask    string `toml:"copy_task"`
	ToggleInfo  string `toml:"toggle_info"`
	ToggleLinks string `toml:"toggle_links"`
}

func Default(dbPath string) Config {
	view := domain.DefaultViewSettings()
	dims := viewport.DefaultDimensions()
	return Config{
		Database: DatabaseConfig{
			Path:       dbPath,
			SeedSample: true,
		},
		Delete: DeleteConfig{
			DefaultMode: DeleteModeArchive,
		},
		Calendar: CalendarConfig{
			Weekend:   []string{"saturday", "sunday"},
			TotalDays: calendar.DefaultTotalDays,
		},
		Canvas: CanvasConfig{
			DayWidth:     dims.DayWidth,
			RowHeight:    dims.RowHeight,
			TaskHeight:   dims.TaskHeight,
			HeaderHeight: dims.HeaderHeight,
			SidebarWidth: dims.SidebarWidth,
			MinZoom:      viewport.DefaultMinZoom,
			MaxZoom:      viewport.DefaultMaxZoom,
		},
		View: fromViewSettings(view),
		Export: ExportConfig{
			Width:  1600,
			Format: "png",
			Scale:  "days",
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".gantt/log",
			},
		},
		Keys: KeyConfig{
			AddTask:     "n",
			LinkTasks:   "L",
			Search:      "/",
			Save:        "ctrl+s",
			CopyTask:    "y",
			ToggleInfo:  "i",
			ToggleLinks: "l",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch c.Delete.DefaultMode {
	case DeleteModeArchive, DeleteModeHard:
	default:
		return fmt.Errorf("invalid delete.default_mode: %q", c.Delete.DefaultMode)
	}

	if epoch := strings.TrimSpace(c.Calendar.Epoch); epoch != "" {
		if _, err := time.Parse(DateLayout, epoch); err != nil {
			return fmt.Errorf("invalid calendar.epoch %q: want YYYY-MM-DD", c.Calendar.Epoch)
		}
	}
	if _, err := c.weekend(); err != nil {
		return err
	}
	if c.Calendar.TotalDays <= 0 {
		return fmt.Errorf("calendar.total_days must be > 0, got %d", c.Calendar.TotalDays)
	}

	for _, dim := range []struct {
		key   string
		value float64
	}{
		{"canvas.day_width", c.Canvas.DayWidth},
		{"canvas.row_height", c.Canvas.RowHeight},
		{"canvas.task_height", c.Canvas.TaskHeight},
		{"canvas.header_height", c.Canvas.HeaderHeight},
		{"canvas.sidebar_width", c.Canvas.SidebarWidth},
	} {
		if dim.value <= 0 {
			return fmt.Errorf("%s must be > 0", dim.key)
		}
	}
	if c.Canvas.TaskHeight > c.Canvas.RowHeight {
		return errors.New("canvas.task_height must not exceed canvas.row_height")
	}
	if c.Canvas.MinZoom <= 0 || c.Canvas.MaxZoom < c.Canvas.MinZoom {
		return fmt.Errorf("invalid canvas zoom bounds [%g, %g]", c.Canvas.MinZoom, c.Canvas.MaxZoom)
	}

	if c.Export.Width <= 0 || c.Export.Height < 0 {
		return fmt.Errorf("invalid export size %dx%d", c.Export.Width, c.Export.Height)
	}
	switch strings.ToLower(strings.TrimSpace(c.Export.Format)) {
	case "png", "svg":
	default:
		return fmt.Errorf("invalid export.format: %q", c.Export.Format)
	}
	switch strings.ToLower(strings.TrimSpace(c.Export.Scale)) {
	case "", "days", "weeks":
	default:
		return fmt.Errorf("invalid export.scale: %q", c.Export.Scale)
	}

	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}

	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level %q: %w", c.Logging.Level, err)
	}
	return nil
}

// NewCalendar builds the workday calendar. today anchors an empty epoch.
func (c Config) NewCalendar(today time.Time) (calendar.Calendar, error) {
	epoch := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if raw := strings.TrimSpace(c.Calendar.Epoch); raw != "" {
		parsed, err := time.Parse(DateLayout, raw)
		if err != nil {
			return calendar.Calendar{}, fmt.Errorf("invalid calendar.epoch %q: %w", raw, err)
		}
		epoch = parsed
	}
	weekend, err := c.weekend()
	if err != nil {
		return calendar.Calendar{}, err
	}
	return calendar.New(epoch, weekend, c.Calendar.TotalDays), nil
}

// Dimensions returns the canvas metrics.
func (c Config) Dimensions() viewport.Dimensions {
	return viewport.Dimensions{
		DayWidth:     c.Canvas.DayWidth,
		RowHeight:    c.Canvas.RowHeight,
		TaskHeight:   c.Canvas.TaskHeight,
		HeaderHeight: c.Canvas.HeaderHeight,
		SidebarWidth: c.Canvas.SidebarWidth,
	}
}

// Viewport returns a fresh viewport with the configured metrics and zoom bounds.
func (c Config) Viewport() viewport.Viewport {
	return viewport.New(c.Dimensions(), c.Canvas.MinZoom, c.Canvas.MaxZoom)
}

func (c Config) ViewSettings() domain.ViewSettings {
	v := c.View
	return domain.ViewSettings{
		ShowLinks:      v.ShowLinks,
		LinkMode:       v.LinkMode,
		ShowGrid:       v.ShowGrid,
		ShowWeekends:   v.ShowWeekends,
		ShowProgress:   v.ShowProgress,
		ShowAuthors:    v.ShowAuthors,
		ShowMilestones: v.ShowMilestones,
		ShowTimestamps: v.ShowTimestamps,
		ShowColors:     v.ShowColors,
		ShowTaskIDs:    v.ShowTaskIDs,
		ShowTodayLine:  v.ShowTodayLine,
		ShowHoverTask:  v.ShowHoverTask,
	}
}

func fromViewSettings(s domain.ViewSettings) ViewConfig {
	return ViewConfig{
		ShowLinks:      s.ShowLinks,
		LinkMode:       s.LinkMode,
		ShowGrid:       s.ShowGrid,
		ShowWeekends:   s.ShowWeekends,
		ShowProgress:   s.ShowProgress,
		ShowAuthors:    s.ShowAuthors,
		ShowMilestones: s.ShowMilestones,
		ShowTimestamps: s.ShowTimestamps,
		ShowColors:     s.ShowColors,
		ShowTaskIDs:    s.ShowTaskIDs,
		ShowTodayLine:  s.ShowTodayLine,
		ShowHoverTask:  s.ShowHoverTask,
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// weekend parses calendar.weekend; one day fills both slots.
func (c Config) weekend() ([2]time.Weekday, error) {
	var out [2]time.Weekday
	if len(c.Calendar.Weekend) == 0 || len(c.Calendar.Weekend) > 2 {
		return out, fmt.Errorf("calendar.weekend must name one or two days, got %d", len(c.Calendar.Weekend))
	}
	for i, raw := range c.Calendar.Weekend {
		day, ok := weekdays[strings.ToLower(strings.TrimSpace(raw))]
		if !ok {
			return out, fmt.Errorf("calendar.weekend[%d] is not a weekday: %q", i, raw)
		}
		out[i] = day
	}
	if len(c.Calendar.Weekend) == 1 {
		out[1] = out[0]
	}
	return out, nil
}

// Save writes cfg as TOML, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
