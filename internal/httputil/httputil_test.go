package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRouterRecoversPanics(t *testing.T) {
	var logs bytes.Buffer
	r := NewRouter(slog.New(slog.NewJSONHandler(&logs, nil)))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var logs bytes.Buffer
	r := NewRouter(slog.New(slog.NewJSONHandler(&logs, nil)))
	r.Get("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "/teapot", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
	}{
		{"client error", http.StatusBadRequest, http.StatusBadRequest},
		{"server error", http.StatusServiceUnavailable, http.StatusServiceUnavailable},
		{"zero status", 0, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Fail(discardLogger(), rec, "something broke", errors.New("cause"), tt.status)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "something broke", body["error"])
		})
	}
}

func TestValidationError(t *testing.T) {
	type request struct {
		Question string `validate:"required,max=5"`
	}

	rec := httptest.NewRecorder()
	ValidationError(discardLogger(), rec, Validator.Struct(request{Question: "too long"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Equal(t, []string{"question: max"}, body.Fields)
}

func TestValidationErrorWithPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(discardLogger(), rec, errors.New("not a validation error"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request")
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(discardLogger())(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestEventStream(t *testing.T) {
	rec := httptest.NewRecorder()
	es, err := NewEventStream(rec)
	require.NoError(t, err)

	require.NoError(t, es.Send("render", map[string]string{"answer": "Hel▌"}))
	require.NoError(t, es.Send("done", "bye"))
	require.NoError(t, es.Send("", "anonymous"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.True(t, rec.Flushed)

	want := strings.Join([]string{
		"event: render\ndata: {\"answer\":\"Hel▌\"}\n\n",
		"event: done\ndata: bye\n\n",
		"data: anonymous\n\n",
	}, "")
	assert.Equal(t, want, rec.Body.String())
}

type plainWriter struct {
	header http.Header
}

func (w *plainWriter) Header() http.Header         { return w.header }
func (w *plainWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w *plainWriter) WriteHeader(int)             {}

func TestEventStreamRequiresFlusher(t *testing.T) {
	_, err := NewEventStream(&plainWriter{header: http.Header{}})
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}

func TestEventStreamRejectsUnencodablePayload(t *testing.T) {
	es, err := NewEventStream(httptest.NewRecorder())
	require.NoError(t, err)
	assert.Error(t, es.Send("render", func() {}))
}
