// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/gantt/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing plan tools.
func NewHandler(cfg Config, plans common.PlanService) (*Handler, error) {
	if plans == nil {
		return nil, fmt.Errorf("plan service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerPlanTools(mcpSrv, plans)
	registerTaskTools(mcpSrv, plans)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "gantt"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerPlanTools registers the read-side plan tools.
func registerPlanTools(srv *mcpserver.MCPServer, plans common.PlanService) {
	srv.AddTool(
		mcp.NewTool(
			"gantt.list_plans",
			mcp.WithDescription("List stored plans with group and task counts."),
			mcp.WithBoolean("include_archived", mcp.Description("Include archived plans")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := plans.ListPlans(ctx, req.GetBool("include_archived", false))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"plans": rows})
			if err != nil {
				return nil, fmt.Errorf("encode list_plans result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.get_plan",
			mcp.WithDescription("Return one plan as a portable snapshot."),
			mcp.WithString("plan", mcp.Required(), mcp.Description("Plan id, slug, or name")),
			mcp.WithString("format", mcp.Description("Snapshot encoding"), mcp.Enum(common.SnapshotFormats()...)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ref, err := req.RequireString("plan")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			data, err := plans.ExportPlan(ctx, ref, req.GetString("format", "json"))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return mcp.NewToolResultText(string(data)), nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.plan_status",
			mcp.WithDescription("Classify every task of one plan as completed, not started, ahead, behind, on track, overdue, or off schedule."),
			mcp.WithString("plan", mcp.Required(), mcp.Description("Plan id, slug, or name")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ref, err := req.RequireString("plan")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := plans.PlanStatus(ctx, ref)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(out)
			if err != nil {
				return nil, fmt.Errorf("encode plan_status result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.render_plan",
			mcp.WithDescription("Render one fully expanded plan as an svg document or png image."),
			mcp.WithString("plan", mcp.Required(), mcp.Description("Plan id, slug, or name")),
			mcp.WithString("format", mcp.Description("Image encoding"), mcp.Enum(common.ImageFormats()...)),
			mcp.WithNumber("width", mcp.Description("Canvas width in pixels")),
			mcp.WithNumber("height", mcp.Description("Canvas height in pixels; 0 fits the plan")),
			mcp.WithString("scale", mcp.Description("Time scale"), mcp.Enum("days", "weeks")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ref, err := req.RequireString("plan")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			format := req.GetString("format", "svg")
			var buf bytes.Buffer
			err = plans.RenderPlan(ctx, common.RenderPlanRequest{
				Plan:   ref,
				Format: format,
				Width:  req.GetInt("width", 0),
				Height: req.GetInt("height", 0),
				Scale:  req.GetString("scale", ""),
			}, &buf)
			if err != nil {
				return toolResultFromError(err), nil
			}
			if format == "png" {
				return mcp.NewToolResultImage("rendered "+ref, base64.StdEncoding.EncodeToString(buf.Bytes()), "image/png"), nil
			}
			return mcp.NewToolResultText(buf.String()), nil
		},
	)
}

// registerTaskTools registers task mutation tools.
func registerTaskTools(srv *mcpserver.MCPServer, plans common.PlanService) {
	srv.AddTool(
		mcp.NewTool(
			"gantt.add_task",
			mcp.WithDescription("Schedule one task in a task group. The start snaps to the next workday; workdays 0 adds a milestone."),
			mcp.WithString("plan", mcp.Required(), mcp.Description("Plan id, slug, or name")),
			mcp.WithString("group_id", mcp.Required(), mcp.Description("Task group node identifier")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Task label")),
			mcp.WithString("start", mcp.Description("Start date YYYY-MM-DD (defaults to today)")),
			mcp.WithNumber("workdays", mcp.Description("Working days the task spans")),
			mcp.WithNumber("progress", mcp.Description("Initial progress 0..100")),
			mcp.WithString("author", mcp.Description("Task owner")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ref, err := req.RequireString("plan")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			groupID, err := req.RequireString("group_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			content, err := req.RequireString("content")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := plans.AddTask(ctx, common.AddTaskRequest{
				Plan:     ref,
				GroupID:  groupID,
				Content:  content,
				Start:    req.GetString("start", ""),
				Workdays: req.GetInt("workdays", 0),
				Progress: req.GetInt("progress", 0),
				Author:   req.GetString("author", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(task)
			if err != nil {
				return nil, fmt.Errorf("encode add_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantt.update_progress",
			mcp.WithDescription("Set the progress of one task; values are clamped to 0..100."),
			mcp.WithString("plan", mcp.Required(), mcp.Description("Plan id, slug, or name")),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithNumber("progress", mcp.Required(), mcp.Description("Progress percentage")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ref, err := req.RequireString("plan")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			progress, err := req.RequireInt("progress")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := plans.UpdateProgress(ctx, common.UpdateProgressRequest{Plan: ref, TaskID: taskID, Progress: progress})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(task)
			if err != nil {
				return nil, fmt.Errorf("encode update_progress result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps adapter errors into prefixed MCP tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
