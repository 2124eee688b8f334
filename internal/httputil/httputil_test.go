package httputil

import (
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

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type payload struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=0,lte=10"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantValid bool
	}{
		{name: "valid", body: `{"name":"vi","count":3}`},
		{name: "missing required", body: `{"count":3}`, wantErr: true, wantValid: true},
		{name: "out of range", body: `{"name":"vi","count":11}`, wantErr: true, wantValid: true},
		{name: "unknown field", body: `{"name":"vi","extra":1}`, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", 200) + `"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, 128, &p)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "vi", p.Name)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			assert.Equal(t, tt.wantValid, errors.As(err, &verr))
		})
	}
}

func TestFailWritesJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(discard, rec, "bad catalog", errors.New("row 3: empty id"), http.StatusUnprocessableEntity)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad catalog","detail":"row 3: empty id"}`, rec.Body.String())
}

func TestFailDefaultsTo500(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(discard, rec, "boom", nil, 0)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"boom"}`, rec.Body.String())
}

func TestRouterRecoversPanics(t *testing.T) {
	r := NewRouter(discard)
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("oops") })
	r.Get("/healthz", HealthHandler(discard))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
