package httpx

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/dkellner/modelstore/internal/accounts"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity is the authenticated caller as carried in the cookie session.
type Identity struct {
	Email string
	Role  string
}

type SessionAuth struct {
	Store sessions.Store
	Name  string
}

func NewSessionAuth(secret string) *SessionAuth {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   7 * 24 * 60 * 60,
	}
	return &SessionAuth{Store: store, Name: "storefront_session"}
}

func (a *SessionAuth) identity(r *http.Request) (Identity, bool) {
	sess, err := a.Store.Get(r, a.Name)
	if err != nil {
		return Identity{}, false
	}
	email, _ := sess.Values["email"].(string)
	role, _ := sess.Values["role"].(string)
	if email == "" {
		return Identity{}, false
	}
	return Identity{Email: email, Role: role}, true
}

func (a *SessionAuth) Login(w http.ResponseWriter, r *http.Request, u *accounts.User) error {
	sess, _ := a.Store.Get(r, a.Name)
	sess.Values["email"] = u.Email
	sess.Values["role"] = u.Role
	return sess.Save(r, w)
}

func (a *SessionAuth) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := a.Store.Get(r, a.Name)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

// RequireUser rejects unauthenticated requests and stashes the identity in
// the request context.
func (a *SessionAuth) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := a.identity(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, ident)))
	})
}

// RequireAdmin additionally requires the admin role. Being authenticated is
// not enough for admin surfaces.
func (a *SessionAuth) RequireAdmin(next http.Handler) http.Handler {
	return a.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, _ := IdentityFrom(r.Context())
		if ident.Role != accounts.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}
