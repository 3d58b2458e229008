// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound reports an unknown plan, group or task reference.
var ErrNotFound = errors.New("not found")

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrUnavailable reports a missing backing service.
var ErrUnavailable = errors.New("service unavailable")

// SnapshotFormats lists the encodings accepted for plan snapshots.
func SnapshotFormats() []string {
	return []string{"json", "yaml"}
}

// ImageFormats lists the encodings accepted for rendered plans.
func ImageFormats() []string {
	return []string{"png", "svg"}
}

// PlanSummary is the list-row view of one stored plan.
type PlanSummary struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Groups      int       `json:"groups"`
	Tasks       int       `json:"tasks"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskStatus is one task with resolved dates and its schedule-health tier.
type TaskStatus struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	GroupID   string `json:"group_id"`
	Group     string `json:"group"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Duration  int    `json:"duration"`
	Workdays  int    `json:"workdays"`
	Progress  int    `json:"progress"`
	Milestone bool   `json:"milestone"`
	Author    string `json:"author,omitempty"`
	Status    string `json:"status"`
}

// PlanStatus groups the task tiers of one plan as of Today.
type PlanStatus struct {
	Plan   PlanSummary    `json:"plan"`
	Today  string         `json:"today"`
	Tasks  []TaskStatus   `json:"tasks"`
	Counts map[string]int `json:"counts"`
}

// ImportPlanRequest carries one snapshot to import as a new plan.
type ImportPlanRequest struct {
	Name   string
	Format string
	Data   []byte
}

// ImportPlanResult reports the stored plan and the repairs applied while importing.
type ImportPlanResult struct {
	Plan    PlanSummary `json:"plan"`
	Repairs []string    `json:"repairs,omitempty"`
}

// RenderPlanRequest selects the image encoding and canvas size for one render.
type RenderPlanRequest struct {
	Plan   string
	Format string
	Width  int
	Height int
	Zoom   float64
	Scale  string
}

// AddTaskRequest schedules one new task in a task group. Start is YYYY-MM-DD; an
// empty Start means the next workday. Workdays 0 adds a milestone.
type AddTaskRequest struct {
	Plan     string `json:"plan"`
	GroupID  string `json:"group_id"`
	Content  string `json:"content"`
	Start    string `json:"start,omitempty"`
	Workdays int    `json:"workdays"`
	Progress int    `json:"progress,omitempty"`
	Author   string `json:"author,omitempty"`
}

// UpdateProgressRequest sets the progress of one task.
type UpdateProgressRequest struct {
	Plan     string `json:"plan"`
	TaskID   string `json:"task_id"`
	Progress int    `json:"progress"`
}

// PlanService is the plan surface shared by the HTTP and MCP adapters.
type PlanService interface {
	ListPlans(ctx context.Context, includeArchived bool) ([]PlanSummary, error)
	ExportPlan(ctx context.Context, ref, format string) ([]byte, error)
	ImportPlan(ctx context.Context, req ImportPlanRequest) (ImportPlanResult, error)
	RenderPlan(ctx context.Context, req RenderPlanRequest, w io.Writer) error
	PlanStatus(ctx context.Context, ref string) (PlanStatus, error)
	AddTask(ctx context.Context, req AddTaskRequest) (TaskStatus, error)
	UpdateProgress(ctx context.Context, req UpdateProgressRequest) (TaskStatus, error)
}
