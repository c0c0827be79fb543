package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkellner/modelstore/internal/accounts"
)

func sessionCookie(t *testing.T, auth *SessionAuth, u *accounts.User) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	if err := auth.Login(rr, req, u); err != nil {
		t.Fatalf("login: %v", err)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}
	return cookies[0]
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireUserRejectsAnonymous(t *testing.T) {
	auth := NewSessionAuth("test-secret")
	rr := httptest.NewRecorder()
	auth.RequireUser(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestRequireUserPassesIdentity(t *testing.T) {
	auth := NewSessionAuth("test-secret")
	cookie := sessionCookie(t, auth, &accounts.User{Email: "jane@example.com", Role: accounts.RoleCustomer})

	var got Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFrom(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	auth.RequireUser(next).ServeHTTP(httptest.NewRecorder(), req)

	if got.Email != "jane@example.com" || got.Role != accounts.RoleCustomer {
		t.Fatalf("identity = %+v", got)
	}
}

func TestRequireAdminRejectsCustomer(t *testing.T) {
	auth := NewSessionAuth("test-secret")
	cookie := sessionCookie(t, auth, &accounts.User{Email: "jane@example.com", Role: accounts.RoleCustomer})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	auth.RequireAdmin(okHandler()).ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	auth := NewSessionAuth("test-secret")
	cookie := sessionCookie(t, auth, &accounts.User{Email: "ops@example.com", Role: accounts.RoleAdmin})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	auth.RequireAdmin(okHandler()).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
