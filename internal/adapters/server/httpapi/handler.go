// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/gantt/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	plans common.PlanService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over a plan service.
func NewHandler(plans common.PlanService) *Handler {
	return &Handler{plans: plans}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.plans == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "plan service is not configured",
		})
		return
	}
	path := normalizePath(r.URL.Path)
	if path == "plans" {
		switch r.Method {
		case http.MethodGet:
			h.handleListPlans(w, r)
		case http.MethodPost:
			h.handleImportPlan(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}

	ref, rest, ok := resolvePlanPath(path)
	if !ok {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
		return
	}
	switch rest {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleExportPlan(w, r, ref)
	case "render.png", "render.svg":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleRenderPlan(w, r, ref, strings.TrimPrefix(rest, "render."))
	case "status":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handlePlanStatus(w, r, ref)
	case "tasks":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleAddTask(w, r, ref)
	case "progress":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleUpdateProgress(w, r, ref)
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

// handleListPlans serves GET `/plans`.
func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	includeArchived, err := parseBoolQuery(r, "all")
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	plans, err := h.plans.ListPlans(r.Context(), includeArchived)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plans": plans,
	})
}

// handleImportPlan serves POST `/plans` with a raw snapshot body.
func (h *Handler) handleImportPlan(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		writeErrorFrom(w, fmt.Errorf("read request body: %w", errors.Join(common.ErrInvalidRequest, err)))
		return
	}
	format := strings.TrimSpace(r.URL.Query().Get("format"))
	if format == "" {
		format = formatFromContentType(r.Header.Get("Content-Type"))
	}
	result, err := h.plans.ImportPlan(r.Context(), common.ImportPlanRequest{
		Name:   strings.TrimSpace(r.URL.Query().Get("name")),
		Format: format,
		Data:   data,
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleExportPlan serves GET `/plans/{ref}` as a json or yaml snapshot.
func (h *Handler) handleExportPlan(w http.ResponseWriter, r *http.Request, ref string) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "json"
	}
	data, err := h.plans.ExportPlan(r.Context(), ref, format)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	contentType := "application/json"
	if format == "yaml" || format == "yml" {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleRenderPlan serves GET `/plans/{ref}/render.{png,svg}`.
func (h *Handler) handleRenderPlan(w http.ResponseWriter, r *http.Request, ref, format string) {
	q := r.URL.Query()
	width, err := parseIntQuery(q.Get("width"), "width")
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	height, err := parseIntQuery(q.Get("height"), "height")
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	zoom := 0.0
	if raw := strings.TrimSpace(q.Get("zoom")); raw != "" {
		zoom, err = strconv.ParseFloat(raw, 64)
		if err != nil || zoom <= 0 {
			writeErrorFrom(w, fmt.Errorf("zoom %q must be a positive number: %w", raw, common.ErrInvalidRequest))
			return
		}
	}

	// Render fully before writing so failures still produce an error envelope.
	var buf bytes.Buffer
	err = h.plans.RenderPlan(r.Context(), common.RenderPlanRequest{
		Plan:   ref,
		Format: format,
		Width:  width,
		Height: height,
		Zoom:   zoom,
		Scale:  strings.TrimSpace(q.Get("scale")),
	}, &buf)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	contentType := "image/png"
	if format == "svg" {
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handlePlanStatus serves GET `/plans/{ref}/status`.
func (h *Handler) handlePlanStatus(w http.ResponseWriter, r *http.Request, ref string) {
	out, err := h.plans.PlanStatus(r.Context(), ref)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAddTask serves POST `/plans/{ref}/tasks`.
func (h *Handler) handleAddTask(w http.ResponseWriter, r *http.Request, ref string) {
	var req common.AddTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.Plan = ref
	task, err := h.plans.AddTask(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// handleUpdateProgress serves POST `/plans/{ref}/progress`.
func (h *Handler) handleUpdateProgress(w http.ResponseWriter, r *http.Request, ref string) {
	var req common.UpdateProgressRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.Plan = ref
	task, err := h.plans.UpdateProgress(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// resolvePlanPath splits `plans/{ref}[/{rest}]` into ref and rest.
func resolvePlanPath(path string) (string, string, bool) {
	const prefix = "plans/"
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	ref, rest, _ := strings.Cut(strings.TrimPrefix(path, prefix), "/")
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.Contains(rest, "/") {
		return "", "", false
	}
	return ref, rest, true
}

func formatFromContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "yaml"):
		return "yaml"
	default:
		return ""
	}
}

func parseBoolQuery(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s %q must be a boolean: %w", key, raw, common.ErrInvalidRequest)
	}
	return v, nil
}

func parseIntQuery(raw, key string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s %q must be a non-negative integer: %w", key, raw, common.ErrInvalidRequest)
	}
	return v, nil
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
			Context: map[string]any{
				"snapshot_formats": common.SnapshotFormats(),
				"image_formats":    common.ImageFormats(),
			},
		})
	case errors.Is(err, common.ErrUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
