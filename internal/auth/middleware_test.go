package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func newTestHandler(enforce bool, seen *Role) http.Handler {
	policy := NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	mw := NewMiddleware(testSecret, policy, enforce)
	return mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = RoleFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthMiddleware_EnforcedNoToken(t *testing.T) {
	handler := newTestHandler(true, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/slots", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_UserForbiddenSlotToggle(t *testing.T) {
	handler := newTestHandler(true, nil)
	token := mustToken(t, "user-1", "user")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/slots/slot-1/toggle", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_UserForbiddenExport(t *testing.T) {
	handler := newTestHandler(true, nil)
	token := mustToken(t, "user-1", "user")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/export.csv", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_AdminAllowedSimulationToggle(t *testing.T) {
	var seen Role
	handler := newTestHandler(true, &seen)
	token := mustToken(t, "admin-1", "admin")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulation/toggle", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if seen != RoleAdmin {
		t.Fatalf("expected admin role in context, got %q", seen)
	}
}

func TestAuthMiddleware_NotEnforcedPassesThrough(t *testing.T) {
	var seen Role
	handler := newTestHandler(false, &seen)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/slots/slot-1/toggle", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if seen != "" {
		t.Fatalf("expected no identity, got %q", seen)
	}

	token := mustToken(t, "user-1", "user")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/slots/slot-1/toggle", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 without enforcement, got %d", resp.Code)
	}
	if seen != RoleUser {
		t.Fatalf("expected user identity attached, got %q", seen)
	}
}

func TestAuthMiddleware_ExemptAndAuthRoutes(t *testing.T) {
	handler := newTestHandler(true, nil)
	for _, path := range []string{"/healthz", "/metrics", "/api/auth/login"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestIssueAndParseJWT(t *testing.T) {
	token, err := IssueJWT(testSecret, "user-7", "alice", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := ParseJWT(token, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-7" || claims.Username != "alice" || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := ParseJWT(token, []byte("other")); err == nil {
		t.Fatalf("expected signature error")
	}
	if _, err := IssueJWT(testSecret, "user-7", "alice", Role("root"), time.Hour); err == nil {
		t.Fatalf("expected invalid role error")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	claims := Claims{
		Username: "bob",
		Role:     "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := ParseJWT(signed, testSecret); err == nil {
		t.Fatalf("expected expired token error")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "s3cret"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err != ErrPasswordMismatch {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role, required Role
		want           bool
	}{
		{RoleAdmin, RoleUser, true},
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{Role(""), RoleUser, false},
	}
	for _, tc := range cases {
		if got := RoleAtLeast(tc.role, tc.required); got != tc.want {
			t.Fatalf("RoleAtLeast(%q, %q) = %v", tc.role, tc.required, got)
		}
	}
}

func mustToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := Claims{
		Username: subject,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
