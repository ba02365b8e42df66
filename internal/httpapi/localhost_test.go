package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLocalhostOnlyRejectsCFConnectingIP(t *testing.T) {
	s := &Server{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run when CF-Connecting-IP is present")
	})

	req := httptest.NewRequest("POST", "/api/refresh", nil)
	req.Header.Set("CF-Connecting-IP", "203.0.113.5")
	rec := httptest.NewRecorder()

	s.localhostOnly(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestLocalhostOnlyAllowsRequestsWithoutCFHeader(t *testing.T) {
	s := &Server{}
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/api/refresh", nil)
	rec := httptest.NewRecorder()

	s.localhostOnly(next).ServeHTTP(rec, req)

	if !called {
		t.Error("expected next handler to run")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
