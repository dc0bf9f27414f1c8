// Package api exposes tracker, ledger and registered operations over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psantana5/fnenhance/internal/report"
	"github.com/psantana5/fnenhance/pkg/enhance"
	"github.com/psantana5/fnenhance/pkg/logging"
	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/validate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// InvokeRequest is the body of POST /operations/{name}
type InvokeRequest struct {
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// ErrorResponse is returned for requests that fail outside an envelope
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Handler serves the enhancer's state and invokes registered operations
type Handler struct {
	enhancer *enhance.Enhancer
	gatherer prometheus.Gatherer
	logger   *logging.Logger
	now      func() time.Time

	mu         sync.RWMutex
	operations map[string]operation.Operation
}

// NewHandler creates a handler. gatherer backs /metrics.
func NewHandler(e *enhance.Enhancer, gatherer prometheus.Gatherer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		enhancer:   e,
		gatherer:   gatherer,
		logger:     logger.WithComponent("api"),
		now:        time.Now,
		operations: make(map[string]operation.Operation),
	}
}

// Register makes op invokable at POST /operations/{op.Name}. A later
// registration under the same name replaces the earlier one.
func (h *Handler) Register(op operation.Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.operations[op.Name] = op
}

// Operations lists registered operation names, sorted
func (h *Handler) Operations() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.operations))
	for name := range h.operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterRoutes wires all endpoints onto r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/snapshot", h.HandleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/history", h.HandleHistory).Methods(http.MethodGet)
	r.HandleFunc("/failures", h.HandleFailures).Methods(http.MethodGet)
	r.HandleFunc("/operations", h.HandleListOperations).Methods(http.MethodGet)
	r.HandleFunc("/operations/{name}", h.HandleInvoke).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleSnapshot renders the full report; ?format=json|yaml|table
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = report.FormatJSON
	}

	rep := report.Build(h.enhancer.Tracker(), h.enhancer.Ledger(), h.now())
	var buf bytes.Buffer
	if err := report.Write(&buf, rep, format); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, report.ErrUnknownFormat) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, ErrorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Write(buf.Bytes())
}

// HandleHistory returns the ledger in append order
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.enhancer.Ledger().History())
}

// HandleFailures returns recent failures, newest first; ?limit=n
func (h *Handler) HandleFailures(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid limit %q", raw)})
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.enhancer.Tracker().RecentFailures(limit))
}

// HandleListOperations lists invokable operations
func (h *Handler) HandleListOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Operations())
}

// HandleInvoke calls a registered operation with the JSON arguments in the
// request body. An enveloped operation always answers 200 with its
// Response; other failures map to a status code.
func (h *Handler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	h.mu.RLock()
	op, ok := h.operations[name]
	h.mu.RUnlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("operation %q not found", name)})
		return
	}

	var req InvokeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	args := operation.Args{Positional: make([]any, len(req.Args))}
	for i, v := range req.Args {
		args.Positional[i] = normalize(v)
	}
	if len(req.Kwargs) > 0 {
		args.Named = make(map[string]any, len(req.Kwargs))
		for k, v := range req.Kwargs {
			args.Named[k] = normalize(v)
		}
	}

	result, err := op.Call(r.Context(), args)
	if err != nil {
		h.logger.Warn("invocation failed", map[string]interface{}{
			"operation": name,
			"error":     err.Error(),
		})
		writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error(), ErrorKind: enhance.ErrorKind(err)})
		return
	}

	if resp, ok := result.(enhance.Response); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": result})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, operation.ErrBind):
		return http.StatusBadRequest
	case errors.Is(err, validate.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, enhance.ErrThrottled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// normalize turns whole JSON numbers into int and the rest into float64
func normalize(v any) any {
	if num, ok := jsoniter.CastJsonNumber(v); ok {
		if i, err := strconv.ParseInt(num, 10, 0); err == nil {
			return int(i)
		}
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			return f
		}
		return num
	}
	switch n := v.(type) {
	case []any:
		for i := range n {
			n[i] = normalize(n[i])
		}
		return n
	case map[string]any:
		for k := range n {
			n[k] = normalize(n[k])
		}
		return n
	default:
		return v
	}
}

func contentType(format string) string {
	switch format {
	case report.FormatYAML:
		return "application/yaml"
	case report.FormatTable:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
