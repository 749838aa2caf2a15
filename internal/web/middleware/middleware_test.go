package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/carbot/internal/config"
	"github.com/JonMunkholm/carbot/internal/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAPIKeyAuth(t *testing.T) {
	enabled := config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}

	tests := []struct {
		name   string
		cfg    config.SecurityConfig
		key    string
		status int
	}{
		{"disabled passes", config.SecurityConfig{}, "", http.StatusNoContent},
		{"missing key", enabled, "", http.StatusUnauthorized},
		{"wrong key", enabled, "gamma", http.StatusForbidden},
		{"first key", enabled, "alpha", http.StatusNoContent},
		{"second key", enabled, "beta", http.StatusNoContent},
		{"prefix is not a match", enabled, "alp", http.StatusForbidden},
		{"required without keys", config.SecurityConfig{RequireAPIKey: true}, "alpha", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cars", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()

			APIKeyAuth(tt.cfg)(okHandler).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status >= 400 && !strings.Contains(rec.Body.String(), `"code":"AUTH_`) {
				t.Errorf("body = %s, want auth error code", rec.Body.String())
			}
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	trusted := []string{"10.0.0.0/8", "192.168.1.7", "not-an-ip"}

	tests := []struct {
		name    string
		trusted []string
		remote  string
		realIP  string
		xff     string
		want    string
	}{
		{"untrusted source keeps remote", trusted, "203.0.113.9:5000", "1.2.3.4", "", "203.0.113.9:5000"},
		{"trusted cidr uses X-Real-IP", trusted, "10.1.2.3:5000", "1.2.3.4", "", "1.2.3.4"},
		{"trusted single address", trusted, "192.168.1.7:80", "1.2.3.4", "", "1.2.3.4"},
		{"first forwarded entry", trusted, "10.1.2.3:5000", "", "5.6.7.8, 10.1.2.3", "5.6.7.8"},
		{"invalid header ignored", trusted, "10.1.2.3:5000", "bogus", "", "10.1.2.3:5000"},
		{"no trusted proxies", nil, "10.1.2.3:5000", "1.2.3.4", "", "10.1.2.3:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "debug", "text")

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/brands", nil)
	req = req.WithContext(logging.WithLogger(req.Context(), logger))
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"level=" + slog.LevelWarn.String(), "status=500", "path=/api/brands", "method=GET"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}
