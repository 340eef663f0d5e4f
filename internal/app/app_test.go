package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]pinger
		wantCode int
		wantBody string
	}{
		{
			name:     "all healthy",
			checks:   map[string]pinger{"postgres": fakePinger{}, "redis": fakePinger{}},
			wantCode: http.StatusOK,
			wantBody: `{"status":"ready"}`,
		},
		{
			name:     "postgres down",
			checks:   map[string]pinger{"postgres": fakePinger{err: errors.New("dial tcp: refused")}},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"error":"postgres unavailable"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &App{logger: zap.NewNop(), checks: tt.checks}
			rec := httptest.NewRecorder()
			a.readyHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHealthHandler(t *testing.T) {
	a := &App{logger: zap.NewNop()}
	rec := httptest.NewRecorder()
	a.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
