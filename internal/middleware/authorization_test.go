package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
)

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func withIdentity(r *http.Request, uid, role string) *http.Request {
	ctx := context.WithValue(r.Context(), CtxUserID, uid)
	ctx = context.WithValue(ctx, CtxRole, role)
	return r.WithContext(ctx)
}

func TestRequireAuth(t *testing.T) {
	next, called := okHandler()
	h := RequireAuth(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized || *called {
		t.Fatalf("anonymous request: code=%d called=%v", w.Code, *called)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "u-1", models.RoleCustomer))
	if w.Code != http.StatusOK || !*called {
		t.Fatalf("authenticated request: code=%d called=%v", w.Code, *called)
	}
}

func TestRequireRoles(t *testing.T) {
	next, called := okHandler()
	h := RequireRoles(models.RoleTech, models.RoleAdmin)(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "u-1", models.RoleCustomer))
	if w.Code != http.StatusForbidden || *called {
		t.Fatalf("customer: code=%d called=%v", w.Code, *called)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), "u-2", models.RoleAdmin))
	if w.Code != http.StatusOK || !*called {
		t.Fatalf("admin: code=%d called=%v", w.Code, *called)
	}
}
