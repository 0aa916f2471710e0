package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"chatsync/pkg/config"
)

func setSigningKeys(t *testing.T, keys ...string) {
	t.Helper()
	rc := &config.RuntimeConfig{BackendKeys: map[string]struct{}{}, SigningKeys: map[string]struct{}{}}
	for _, k := range keys {
		rc.SigningKeys[k] = struct{}{}
	}
	config.SetRuntime(rc)
	t.Cleanup(func() { config.SetRuntime(&config.RuntimeConfig{}) })
}

func echoSubject() (http.Handler, *string) {
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, &got
}

func TestValidSignaturePasses(t *testing.T) {
	setSigningKeys(t, "sekret")
	inner, got := echoSubject()
	h := RequireSignedSubject(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("X-User-Signature", Sign("sekret", "alice"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if *got != "alice" {
		t.Fatalf("subject = %q", *got)
	}
}

func TestInvalidSignatureRejected(t *testing.T) {
	setSigningKeys(t, "sekret")
	inner, _ := echoSubject()
	h := RequireSignedSubject(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("X-User-Signature", Sign("wrong-key", "alice"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestSignatureForOtherSubjectRejected(t *testing.T) {
	setSigningKeys(t, "sekret")
	inner, _ := echoSubject()
	h := RequireSignedSubject(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.Header.Set("X-User-ID", "mallory")
	req.Header.Set("X-User-Signature", Sign("sekret", "alice"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestMissingHeadersRejected(t *testing.T) {
	setSigningKeys(t, "sekret")
	inner, _ := echoSubject()
	h := RequireSignedSubject(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestBackendRolePassesWithoutSignature(t *testing.T) {
	setSigningKeys(t, "sekret")
	inner, got := echoSubject()
	h := RequireSignedSubject(inner)

	req := httptest.NewRequest(http.MethodPost, "/v1/directory/sync", nil)
	req.Header.Set("X-Role-Name", "backend")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if *got != "" {
		t.Fatalf("backend call without identity should carry no subject, got %q", *got)
	}
}

func TestNoSigningKeysConfigured(t *testing.T) {
	config.SetRuntime(&config.RuntimeConfig{})
	inner, _ := echoSubject()
	h := RequireSignedSubject(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("X-User-Signature", Sign("sekret", "alice"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}
