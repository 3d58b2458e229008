package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hylla/gantt/internal/adapters/server/common"
)

// stubPlanService provides deterministic plan responses for handler tests.
type stubPlanService struct {
	plans        []common.PlanSummary
	snapshot     []byte
	status       common.PlanStatus
	task         common.TaskStatus
	err          error
	lastArchived bool
	lastRef      string
	lastFormat   string
	lastImport   common.ImportPlanRequest
	lastRender   common.RenderPlanRequest
	lastAdd      common.AddTaskRequest
	lastProgress common.UpdateProgressRequest
}

func (s *stubPlanService) ListPlans(_ context.Context, includeArchived bool) ([]common.PlanSummary, error) {
	s.lastArchived = includeArchived
	if s.err != nil {
		return nil, s.err
	}
	return append([]common.PlanSummary(nil), s.plans...), nil
}

func (s *stubPlanService) ExportPlan(_ context.Context, ref, format string) ([]byte, error) {
	s.lastRef, s.lastFormat = ref, format
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func (s *stubPlanService) ImportPlan(_ context.Context, req common.ImportPlanRequest) (common.ImportPlanResult, error) {
	s.lastImport = req
	if s.err != nil {
		return common.ImportPlanResult{}, s.err
	}
	return common.ImportPlanResult{Plan: common.PlanSummary{ID: "p2", Name: req.Name}, Repairs: []string{"dropped link"}}, nil
}

func (s *stubPlanService) RenderPlan(_ context.Context, req common.RenderPlanRequest, w io.Writer) error {
	s.lastRender = req
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, "<svg/>")
	return err
}

func (s *stubPlanService) PlanStatus(_ context.Context, ref string) (common.PlanStatus, error) {
	s.lastRef = ref
	if s.err != nil {
		return common.PlanStatus{}, s.err
	}
	return s.status, nil
}

func (s *stubPlanService) AddTask(_ context.Context, req common.AddTaskRequest) (common.TaskStatus, error) {
	s.lastAdd = req
	if s.err != nil {
		return common.TaskStatus{}, s.err
	}
	return s.task, nil
}

func (s *stubPlanService) UpdateProgress(_ context.Context, req common.UpdateProgressRequest) (common.TaskStatus, error) {
	s.lastProgress = req
	if s.err != nil {
		return common.TaskStatus{}, s.err
	}
	return s.task, nil
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var envelope ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return envelope
}

// TestHandlerListPlans verifies list response shape and the archived toggle.
func TestHandlerListPlans(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	plans := &stubPlanService{plans: []common.PlanSummary{{ID: "p1", Slug: "launch", Name: "Launch", Tasks: 4, CreatedAt: now, UpdatedAt: now}}}
	rec := serve(t, NewHandler(plans), http.MethodGet, "/plans?all=true", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got struct {
		Plans []common.PlanSummary `json:"plans"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got.Plans) != 1 || got.Plans[0].Slug != "launch" {
		t.Fatalf("unexpected plans %#v", got.Plans)
	}
	if !plans.lastArchived {
		t.Fatal("expected all=true to include archived plans")
	}

	rec = serve(t, NewHandler(plans), http.MethodGet, "/plans?all=maybe", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestHandlerImportAndExport verifies raw snapshot bodies in both directions.
func TestHandlerImportAndExport(t *testing.T) {
	plans := &stubPlanService{snapshot: []byte("version: 1\n")}
	handler := NewHandler(plans)

	req := httptest.NewRequest(http.MethodPost, "/plans?name=Copy", strings.NewReader("version: 1\n"))
	req.Header.Set("Content-Type", "application/yaml")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if plans.lastImport.Name != "Copy" || plans.lastImport.Format != "yaml" || string(plans.lastImport.Data) != "version: 1\n" {
		t.Fatalf("unexpected import request %#v", plans.lastImport)
	}
	var result common.ImportPlanResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if result.Plan.ID != "p2" || len(result.Repairs) != 1 {
		t.Fatalf("unexpected import result %#v", result)
	}

	rec = serve(t, handler, http.MethodGet, "/plans/launch?format=yaml", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/yaml" {
		t.Fatalf("content-type = %q, want application/yaml", got)
	}
	if rec.Body.String() != "version: 1\n" || plans.lastRef != "launch" {
		t.Fatalf("unexpected export body %q for ref %q", rec.Body.String(), plans.lastRef)
	}

	serve(t, handler, http.MethodGet, "/plans/launch", "")
	if plans.lastFormat != "json" {
		t.Fatalf("format = %q, want json default", plans.lastFormat)
	}
}

// TestHandlerRenderPlan verifies query parsing and image content types.
func TestHandlerRenderPlan(t *testing.T) {
	plans := &stubPlanService{}
	handler := NewHandler(plans)

	rec := serve(t, handler, http.MethodGet, "/plans/launch/render.svg?width=900&height=300&zoom=1.5&scale=weeks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/svg+xml" {
		t.Fatalf("content-type = %q, want image/svg+xml", got)
	}
	want := common.RenderPlanRequest{Plan: "launch", Format: "svg", Width: 900, Height: 300, Zoom: 1.5, Scale: "weeks"}
	if plans.lastRender != want {
		t.Fatalf("render request = %#v, want %#v", plans.lastRender, want)
	}

	for _, target := range []string{
		"/plans/launch/render.png?width=-1",
		"/plans/launch/render.png?height=tall",
		"/plans/launch/render.png?zoom=0",
	} {
		rec := serve(t, handler, http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want %d", target, rec.Code, http.StatusBadRequest)
		}
	}
}

// TestHandlerTaskEndpoints verifies JSON task mutations take the plan from the path.
func TestHandlerTaskEndpoints(t *testing.T) {
	plans := &stubPlanService{task: common.TaskStatus{ID: "t9", Content: "Ship", Status: "not_started"}}
	handler := NewHandler(plans)

	rec := serve(t, handler, http.MethodPost, "/plans/launch/tasks", `{"group_id":"g1","content":"Ship","start":"2026-03-09","workdays":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if plans.lastAdd.Plan != "launch" || plans.lastAdd.GroupID != "g1" || plans.lastAdd.Workdays != 2 {
		t.Fatalf("unexpected add request %#v", plans.lastAdd)
	}

	rec = serve(t, handler, http.MethodPost, "/plans/launch/progress", `{"task_id":"t9","progress":60}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if plans.lastProgress.Plan != "launch" || plans.lastProgress.TaskID != "t9" || plans.lastProgress.Progress != 60 {
		t.Fatalf("unexpected progress request %#v", plans.lastProgress)
	}

	cases := map[string]string{
		"unknown field":    `{"task_id":"t9","progress":60,"extra":true}`,
		"trailing content": `{"task_id":"t9","progress":60}{}`,
		"malformed":        `{"task_id":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, handler, http.MethodPost, "/plans/launch/progress", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if got := decodeEnvelope(t, rec).Error.Code; got != "invalid_request" {
				t.Fatalf("error.code = %q, want invalid_request", got)
			}
		})
	}
}

// TestHandlerErrorMapping verifies structured status mapping for service errors.
func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid request",
			err:        errors.Join(common.ErrInvalidRequest, errors.New("bad input")),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "not found",
			err:        errors.Join(common.ErrNotFound, errors.New("missing")),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "unavailable",
			err:        common.ErrUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "service_unavailable",
		},
		{
			name:       "internal error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, NewHandler(&stubPlanService{err: tt.err}), http.MethodGet, "/plans/launch/status", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := decodeEnvelope(t, rec).Error.Code; got != tt.wantCode {
				t.Fatalf("error.code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

// TestHandlerRouting verifies unknown paths and wrong methods fail closed.
func TestHandlerRouting(t *testing.T) {
	handler := NewHandler(&stubPlanService{})

	rec := serve(t, handler, http.MethodDelete, "/plans", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if got := rec.Header().Get("Allow"); got != "GET, POST" {
		t.Fatalf("allow = %q, want GET, POST", got)
	}

	rec = serve(t, handler, http.MethodGet, "/plans/launch/tasks", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}

	for _, target := range []string{"/unknown", "/plans/launch/nope", "/plans/launch/render.svg/extra", "/plans//status"} {
		rec := serve(t, handler, http.MethodGet, target, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s status = %d, want %d", target, rec.Code, http.StatusNotFound)
		}
	}

	rec = serve(t, NewHandler(nil), http.MethodGet, "/plans", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
