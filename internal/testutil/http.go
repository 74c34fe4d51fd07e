package testutil

import (
	"context"
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser returns a session user with a fresh id, for handler tests.
func TestUser(name string) *auth.SessionUser {
	return &auth.SessionUser{
		ID:    primitive.NewObjectID(),
		Name:  name,
		Email: name + "@test.com",
	}
}

// WithUser injects a session user into the request context, bypassing the
// cookie layer.
func WithUser(r *http.Request, u *auth.SessionUser) *http.Request {
	return auth.WithTestUser(r, u)
}

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that call handlers directly instead of going
// through a router.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}
