package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/fnenhance/internal/calculator"
	"github.com/psantana5/fnenhance/pkg/enhance"
	"github.com/psantana5/fnenhance/pkg/ledger"
	"github.com/psantana5/fnenhance/pkg/operation"
)

type testServer struct {
	router   *mux.Router
	enhancer *enhance.Enhancer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	e := enhance.New(enhance.WithRetryDelay(0))
	reg := prometheus.NewRegistry()
	reg.MustRegister(e.Tracker().Collector())

	h := NewHandler(e, reg, nil)

	enveloped, err := e.Enhance(calculator.New(),
		enhance.Logging(),
		enhance.Validate(calculator.Rules()),
		enhance.Envelope(),
	)
	require.NoError(t, err)
	h.Register(enveloped)

	plain, err := e.Enhance(operation.New("echo", func(_ context.Context, args operation.Args) (any, error) {
		bound, err := operation.Bind([]operation.Param{operation.Required("v")}, args)
		if err != nil {
			return nil, err
		}
		if bound.Values["v"] == "fail" {
			return nil, errors.New("echo failed")
		}
		return bound.Values["v"], nil
	}, operation.Required("v")), enhance.Logging())
	require.NoError(t, err)
	h.Register(plain)

	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return &testServer{router: r, enhancer: e}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func TestHandleInvoke(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "enveloped success keeps ints",
			path:       "/operations/simple_calculator",
			body:       `{"args": [10, 5, "add"]}`,
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"success": true, "data": float64(15)},
		},
		{
			name:       "kwargs",
			path:       "/operations/simple_calculator",
			body:       `{"args": [10], "kwargs": {"b": 4, "operation": "divide"}}`,
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"success": true, "data": 2.5},
		},
		{
			name:       "enveloped validation failure",
			path:       "/operations/simple_calculator",
			body:       `{"args": [-1, 5, "add"]}`,
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"success": false, "error_kind": "validation.range_violation"},
		},
		{
			name:       "plain failure",
			path:       "/operations/echo",
			body:       `{"args": ["fail"]}`,
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"error": "echo failed", "error_kind": "operation"},
		},
		{
			name:       "binding failure",
			path:       "/operations/echo",
			body:       `{"args": [1, 2]}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"error_kind": "binding"},
		},
		{
			name:       "plain success",
			path:       "/operations/echo",
			body:       `{"kwargs": {"v": "hi"}}`,
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"data": "hi"},
		},
		{
			name:       "unknown operation",
			path:       "/operations/nope",
			body:       `{}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed body",
			path:       "/operations/echo",
			body:       `{"args":`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var got map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			for k, v := range tt.wantBody {
				assert.Equal(t, v, got[k], k)
			}
		})
	}
}

func TestHandleSnapshotAndHistory(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/operations/simple_calculator", `{"args": [1, 2, "add"]}`)
	s.do(http.MethodPost, "/operations/echo", `{"args": ["fail"]}`)

	rec := s.do(http.MethodGet, "/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap struct {
		ErrorCount uint64 `json:"error_count"`
		Samples    []struct {
			Operation string `json:"operation"`
		} `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.ErrorCount)
	require.Len(t, snap.Samples, 1)
	assert.Equal(t, calculator.Name, snap.Samples[0].Operation)

	rec = s.do(http.MethodGet, "/snapshot?format=yaml", "")
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "error_count: 1")

	rec = s.do(http.MethodGet, "/snapshot?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/history", "")
	var history []ledger.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 4)
	assert.Equal(t, "logging added to 'simple_calculator'", history[0].Description)
	assert.Equal(t, "logging added to 'echo'", history[3].Description)
}

func TestHandleFailures(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/operations/echo", `{"args": ["fail"]}`)
	s.do(http.MethodPost, "/operations/echo", `{"args": ["fail"]}`)

	rec := s.do(http.MethodGet, "/failures?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var failures []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failures))
	require.Len(t, failures, 1)
	assert.Equal(t, "echo failed", failures[0]["error"])

	rec = s.do(http.MethodGet, "/failures?limit=-3", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMetricsAndHealth(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/operations/echo", `{"args": ["fail"]}`)

	rec := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fnenhance_operation_errors_total 1")

	rec = s.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/operations", "")
	assert.JSONEq(t, `["echo","simple_calculator"]`, rec.Body.String())
}

func TestNormalize(t *testing.T) {
	var v any
	decoder := json.NewDecoder(strings.NewReader(`[1, 2.5, "x", {"n": 3}]`))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&v))

	got := normalize(v).([]any)
	assert.Equal(t, 1, got[0])
	assert.Equal(t, 2.5, got[1])
	assert.Equal(t, "x", got[2])
	assert.Equal(t, map[string]any{"n": 3}, got[3])
}
