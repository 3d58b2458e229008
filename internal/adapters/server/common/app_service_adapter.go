package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hylla/gantt/internal/app"
	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/mutation"
	"github.com/hylla/gantt/internal/render"
	"github.com/hylla/gantt/internal/status"
	"github.com/hylla/gantt/internal/viewport"
)

const dateLayout = "2006-01-02"

// RenderDefaults are the export settings used when a render request leaves them unset.
type RenderDefaults struct {
	Width    int
	Height   int
	Scale    string
	Dims     viewport.Dimensions
	Settings domain.ViewSettings
	Images   render.Images
}

// AppServiceAdapter maps transport contracts onto app.Service document APIs.
type AppServiceAdapter struct {
	service  *app.Service
	cal      calendar.Calendar
	idGen    app.IDGenerator
	clock    app.Clock
	defaults RenderDefaults
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service, cal calendar.Calendar, idGen app.IDGenerator, clock app.Clock, defaults RenderDefaults) *AppServiceAdapter {
	if clock == nil {
		clock = time.Now
	}
	if defaults.Width <= 0 {
		defaults.Width = 1600
	}
	return &AppServiceAdapter{service: service, cal: cal, idGen: idGen, clock: clock, defaults: defaults}
}

// ListPlans lists stored plans as summaries.
func (a *AppServiceAdapter) ListPlans(ctx context.Context, includeArchived bool) ([]PlanSummary, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	docs, err := a.service.ListDocuments(ctx, includeArchived)
	if err != nil {
		return nil, mapAppError("list plans", err)
	}
	out := make([]PlanSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, summarize(d))
	}
	return out, nil
}

// ExportPlan encodes one plan as a json or yaml snapshot.
func (a *AppServiceAdapter) ExportPlan(ctx context.Context, ref, format string) ([]byte, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	f, err := parseSnapshotFormat(format)
	if err != nil {
		return nil, err
	}
	doc, err := a.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	data, err := a.service.ExportDocument(ctx, doc.ID, f)
	if err != nil {
		return nil, mapAppError("export plan", err)
	}
	return data, nil
}

// ImportPlan stores a snapshot as a new plan.
func (a *AppServiceAdapter) ImportPlan(ctx context.Context, req ImportPlanRequest) (ImportPlanResult, error) {
	if err := a.ready(); err != nil {
		return ImportPlanResult{}, err
	}
	f, err := parseSnapshotFormat(req.Format)
	if err != nil {
		return ImportPlanResult{}, err
	}
	if len(req.Data) == 0 {
		return ImportPlanResult{}, fmt.Errorf("snapshot body is required: %w", ErrInvalidRequest)
	}
	doc, repairs, err := a.service.ImportDocument(ctx, req.Name, req.Data, f)
	if err != nil {
		// Decode and validation failures carry no sentinel of their own.
		return ImportPlanResult{}, fmt.Errorf("import plan: %w", errors.Join(ErrInvalidRequest, err))
	}
	return ImportPlanResult{Plan: summarize(doc), Repairs: repairs}, nil
}

// RenderPlan writes one fully expanded plan as png or svg.
func (a *AppServiceAdapter) RenderPlan(ctx context.Context, req RenderPlanRequest, w io.Writer) error {
	if err := a.ready(); err != nil {
		return err
	}
	raw := req.Format
	if strings.TrimSpace(raw) == "" {
		raw = string(app.ImagePNG)
	}
	format, err := app.ParseImageFormat(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	doc, err := a.find(ctx, req.Plan)
	if err != nil {
		return err
	}
	width := req.Width
	if width <= 0 {
		width = a.defaults.Width
	}
	height := req.Height
	if height <= 0 {
		height = a.defaults.Height
	}
	scale := strings.ToLower(strings.TrimSpace(req.Scale))
	if scale == "" {
		scale = a.defaults.Scale
	}
	err = app.ExportImage(w, doc.Tree, a.cal, app.ExportOptions{
		Format:   format,
		Width:    width,
		Height:   height,
		Zoom:     req.Zoom,
		Dims:     a.defaults.Dims,
		Settings: a.defaults.Settings,
		Today:    a.clock(),
		Images:   a.defaults.Images,
		Scale:    hittest.TimeScale(scale),
	})
	if err != nil {
		return mapAppError("render plan", err)
	}
	return nil
}

// PlanStatus classifies every task of one plan against today.
func (a *AppServiceAdapter) PlanStatus(ctx context.Context, ref string) (PlanStatus, error) {
	if err := a.ready(); err != nil {
		return PlanStatus{}, err
	}
	doc, err := a.find(ctx, ref)
	if err != nil {
		return PlanStatus{}, err
	}
	today := a.clock()
	out := PlanStatus{
		Plan:   summarize(doc),
		Today:  today.Format(dateLayout),
		Tasks:  []TaskStatus{},
		Counts: map[string]int{},
	}
	doc.Tree.Walk(func(n domain.Node, _ int) bool {
		for _, t := range n.Tasks {
			ts := a.taskStatus(t, n, today)
			out.Tasks = append(out.Tasks, ts)
			out.Counts[ts.Status]++
		}
		return true
	})
	return out, nil
}

// AddTask schedules one task in a task group and saves the plan.
func (a *AppServiceAdapter) AddTask(ctx context.Context, req AddTaskRequest) (TaskStatus, error) {
	if err := a.ready(); err != nil {
		return TaskStatus{}, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return TaskStatus{}, fmt.Errorf("content is required: %w", ErrInvalidRequest)
	}
	if req.Workdays < 0 {
		return TaskStatus{}, fmt.Errorf("workdays must be >= 0: %w", ErrInvalidRequest)
	}
	doc, err := a.find(ctx, req.Plan)
	if err != nil {
		return TaskStatus{}, err
	}
	node, ok := doc.Tree.Find(strings.TrimSpace(req.GroupID))
	if !ok {
		return TaskStatus{}, fmt.Errorf("group %q: %w", req.GroupID, ErrNotFound)
	}
	if !node.IsLeaf {
		return TaskStatus{}, fmt.Errorf("group %q does not hold tasks: %w", req.GroupID, ErrInvalidRequest)
	}

	startDate := a.clock()
	if raw := strings.TrimSpace(req.Start); raw != "" {
		startDate, err = time.Parse(dateLayout, raw)
		if err != nil {
			return TaskStatus{}, fmt.Errorf("start %q: want YYYY-MM-DD: %w", raw, ErrInvalidRequest)
		}
	}
	start := a.cal.NextWorkDay(a.cal.ClampDay(a.cal.DayOf(startDate)))
	task, err := domain.NewTask(domain.TaskInput{
		ID:       a.newID(),
		Content:  content,
		StartDay: start,
		Duration: a.cal.AdjustedDuration(start, req.Workdays),
		Progress: req.Progress,
		Author:   req.Author,
		Row:      node.MaxRow() + 1,
	})
	if err != nil {
		return TaskStatus{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	tree, err := mutation.Apply(doc.Tree, mutation.AddTask{NodeID: node.ID, Task: task})
	if err != nil {
		return TaskStatus{}, mapAppError("add task", err)
	}
	if _, err := a.service.SaveTree(ctx, doc.ID, tree); err != nil {
		return TaskStatus{}, mapAppError("save plan", err)
	}
	return a.taskStatus(task, node, a.clock()), nil
}

// UpdateProgress sets the progress of one task and saves the plan. Values are clamped to 0..100.
func (a *AppServiceAdapter) UpdateProgress(ctx context.Context, req UpdateProgressRequest) (TaskStatus, error) {
	if err := a.ready(); err != nil {
		return TaskStatus{}, err
	}
	doc, err := a.find(ctx, req.Plan)
	if err != nil {
		return TaskStatus{}, err
	}
	tree, err := mutation.Apply(doc.Tree, mutation.UpdateProgress{TaskID: strings.TrimSpace(req.TaskID), Progress: req.Progress})
	if err != nil {
		return TaskStatus{}, mapAppError("update progress", err)
	}
	saved, err := a.service.SaveTree(ctx, doc.ID, tree)
	if err != nil {
		return TaskStatus{}, mapAppError("save plan", err)
	}
	task, nodeID, ok := saved.Tree.FindTask(strings.TrimSpace(req.TaskID))
	if !ok {
		return TaskStatus{}, fmt.Errorf("task %q: %w", req.TaskID, ErrNotFound)
	}
	node, _ := saved.Tree.Find(nodeID)
	return a.taskStatus(task, node, a.clock()), nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return nil
}

func (a *AppServiceAdapter) find(ctx context.Context, ref string) (domain.Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Document{}, fmt.Errorf("plan is required: %w", ErrInvalidRequest)
	}
	doc, err := a.service.FindDocument(ctx, ref)
	if err != nil {
		return domain.Document{}, mapAppError("find plan", err)
	}
	return doc, nil
}

func (a *AppServiceAdapter) newID() string {
	if a.idGen != nil {
		if id := a.idGen(); id != "" {
			return id
		}
	}
	return fmt.Sprintf("task-%d", a.clock().UnixNano())
}

func (a *AppServiceAdapter) taskStatus(t domain.Task, node domain.Node, today time.Time) TaskStatus {
	start := a.cal.DayToDate(t.StartDay)
	end := start
	if t.Duration > 0 {
		end = a.cal.DayToDate(t.StartDay + t.Duration - 1)
	}
	return TaskStatus{
		ID:        t.ID,
		Content:   t.Content,
		GroupID:   node.ID,
		Group:     node.Content,
		Start:     start.Format(dateLayout),
		End:       end.Format(dateLayout),
		Duration:  t.Duration,
		Workdays:  a.cal.WorkdaysIn(t.StartDay, t.Duration),
		Progress:  t.Progress,
		Milestone: t.Duration == 0,
		Author:    t.Author,
		Status:    string(status.Classify(t, a.cal, today)),
	}
}

func summarize(d domain.Document) PlanSummary {
	out := PlanSummary{
		ID:          d.ID,
		Slug:        d.Slug,
		Name:        d.Name,
		Description: d.Description,
		Archived:    d.ArchivedAt != nil,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	d.Tree.Walk(func(n domain.Node, _ int) bool {
		if n.IsLeaf {
			out.Groups++
		}
		out.Tasks += len(n.Tasks)
		return true
	})
	return out
}

func parseSnapshotFormat(raw string) (app.Format, error) {
	if strings.TrimSpace(raw) == "" {
		return app.FormatJSON, nil
	}
	f, err := app.ParseFormat(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return f, nil
}

// mapAppError converts app and domain errors into transport sentinels.
func mapAppError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrTaskNotFound):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrUnknownFormat),
		errors.Is(err, app.ErrSnapshotVersion),
		errors.Is(err, app.ErrInvalidExportSize),
		errors.Is(err, domain.ErrNotLeaf),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidContent):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
