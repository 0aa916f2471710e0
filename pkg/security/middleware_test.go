package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testConfig() SecConfig {
	return SecConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		BackendKeys:    map[string]struct{}{"backend-key": {}},
		FrontendKeys:   map[string]struct{}{"frontend-key": {}},
	}
}

func serve(cfg SecConfig, req *http.Request) *httptest.ResponseRecorder {
	h := AuthenticateRequestMiddleware(cfg)(okHandler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNoKeyNoSignatureRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	rr := serve(testConfig(), req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestSignatureHeadersPassPerimeter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("X-User-Signature", "deadbeef")
	rr := serve(testConfig(), req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	// perimeter stamps the role for downstream layers
	if req.Header.Get("X-Role-Name") != "unauth" {
		t.Fatalf("role header = %q", req.Header.Get("X-Role-Name"))
	}
}

func TestFrontendKeyScopedToViewerSurfaces(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.Header.Set("X-API-Key", "frontend-key")
	rr := serve(testConfig(), req)
	if rr.Code != http.StatusOK {
		t.Fatalf("conversations with frontend key: %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/directory/sync", nil)
	req.Header.Set("X-API-Key", "frontend-key")
	rr = serve(testConfig(), req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("directory sync with frontend key: %d, want 403", rr.Code)
	}
}

func TestBackendKeyViaBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/directory/sync", nil)
	req.Header.Set("Authorization", "Bearer backend-key")
	rr := serve(testConfig(), req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if req.Header.Get("X-Role-Name") != "backend" {
		t.Fatalf("role header = %q", req.Header.Get("X-Role-Name"))
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.Header.Set("X-API-Key", "stolen-key")
	rr := serve(testConfig(), req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestHealthzBypassesAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := serve(testConfig(), req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/v1/conversations", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := serve(testConfig(), req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("allow-origin = %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}

	// unlisted origins get no CORS headers
	req = httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("X-API-Key", "frontend-key")
	rr = serve(testConfig(), req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected allow-origin for unlisted origin")
	}
}

func TestIPWhitelist(t *testing.T) {
	cfg := testConfig()
	cfg.IPWhitelist = []string{"10.0.0.1"}

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.RemoteAddr = "10.0.0.1:55555"
	req.Header.Set("X-API-Key", "frontend-key")
	if rr := serve(cfg, req); rr.Code != http.StatusOK {
		t.Fatalf("whitelisted ip: %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.RemoteAddr = "192.168.1.9:55555"
	req.Header.Set("X-API-Key", "frontend-key")
	if rr := serve(cfg, req); rr.Code != http.StatusForbidden {
		t.Fatalf("non-whitelisted ip: %d, want 403", rr.Code)
	}
}

func TestRateLimitPerKey(t *testing.T) {
	cfg := testConfig()
	cfg.RPS = 1
	cfg.Burst = 2
	h := AuthenticateRequestMiddleware(cfg)(okHandler())

	codes := []int{}
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
		req.Header.Set("X-API-Key", "frontend-key")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst should admit the first requests: %v", codes)
	}
	if codes[3] != http.StatusTooManyRequests {
		t.Fatalf("sustained burst should be limited: %v", codes)
	}
}
