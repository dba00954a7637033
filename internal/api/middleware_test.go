package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestOriginAllowed(t *testing.T) {
	patterns := []string{"http://localhost:3000", "https://*.devstream.io", "http://127.0.0.1:*"}

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"HTTP://LOCALHOST:3000", true},
		{"http://localhost:3001", false},
		{"https://app.devstream.io", true},
		{"https://devstream.io", false},
		{"http://app.devstream.io", false},
		{"http://127.0.0.1:5173", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			require.Equal(t, tt.want, OriginAllowed(patterns, tt.origin))
		})
	}

	require.True(t, OriginAllowed([]string{"*"}, "https://anything"))
	require.False(t, OriginAllowed(nil, "https://anything"))
	require.False(t, OriginAllowed([]string{"[bad"}, "https://anything"))
}

func TestAccessLog(t *testing.T) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	buf := bytes.NewBuffer(nil)
	logger := zerolog.New(buf)

	var fromCtx *zerolog.Logger
	h := middleware.RequestID(AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = zerolog.Ctx(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/notes?search=x", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "GET", line["method"])
	require.Equal(t, "/notes", line["path"])
	require.Equal(t, float64(http.StatusTeapot), line["status"])
	require.Equal(t, float64(len("short and stout")), line["bytes"])
	require.NotEmpty(t, line["request_id"])
	require.NotEqual(t, zerolog.Disabled, fromCtx.GetLevel())
}
