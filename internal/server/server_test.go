package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatehouse/gatehouse/internal/directory"
	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/registry"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := directory.NewStore("")
	if err != nil {
		t.Fatalf("directory.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := identity.NewLocalProvider(store, "test-secret", time.Hour)
	reg := registry.New(store, provider, []string{"root@example.com"}, logger)

	return New(DefaultConfig(), store, provider, reg, logger)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rr := get(t, s, "/healthz")
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field = %q, want ok", resp.Status)
	}
}

func TestReadyz(t *testing.T) {
	s := newTestServer(t)

	rr := get(t, s, "/readyz")
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	s := newTestServer(t)

	rr := get(t, s, "/openapi.json")
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var doc struct {
		OpenAPI string                 `json:"openapi"`
		Paths   map[string]interface{} `json:"paths"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.OpenAPI == "" {
		t.Error("missing openapi version field")
	}
	for _, p := range []string{"/api/v1/session", "/api/v1/auth/probe", "/api/v1/admin"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("path %s missing from document", p)
		}
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/auth/probe", "/api/v1/admin"} {
		rr := get(t, s, path)
		if rr.Code != 401 {
			t.Errorf("GET %s without token = %d, want 401", path, rr.Code)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	rr := get(t, s, "/healthz")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}
