package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zenit-qa/zenit/internal/domain"
	"github.com/zenit-qa/zenit/pkg/httputil"
)

// Context keys
type contextKey string

const (
	ContextKeyUserID   contextKey = "user_id"
	ContextKeyUserName contextKey = "user_name"
)

// Default identity headers
const (
	DefaultUserIDHeader   = "X-User-ID"
	DefaultUserNameHeader = "X-User-Name"
)

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(string)
	return id, ok && id != ""
}

// GetActor returns the calling user. Name falls back to the id.
func GetActor(ctx context.Context) domain.Actor {
	id, _ := GetUserID(ctx)
	name, _ := ctx.Value(ContextKeyUserName).(string)
	if name == "" {
		name = id
	}
	return domain.Actor{ID: id, Name: name}
}

// WithActor stores the calling user in ctx
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, actor.ID)
	return context.WithValue(ctx, ContextKeyUserName, actor.Name)
}

// IdentityMiddleware reads the caller from headers set by the fronting
// auth proxy. Requests without the headers pass through anonymously.
type IdentityMiddleware struct {
	userIDHeader   string
	userNameHeader string
}

// NewIdentityMiddleware creates an identity middleware. Empty header names
// use X-User-ID and X-User-Name.
func NewIdentityMiddleware(userIDHeader, userNameHeader string) *IdentityMiddleware {
	if userIDHeader == "" {
		userIDHeader = DefaultUserIDHeader
	}
	if userNameHeader == "" {
		userNameHeader = DefaultUserNameHeader
	}
	return &IdentityMiddleware{userIDHeader: userIDHeader, userNameHeader: userNameHeader}
}

// Handler returns the middleware handler
func (m *IdentityMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(m.userIDHeader))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		actor := domain.Actor{ID: id, Name: strings.TrimSpace(r.Header.Get(m.userNameHeader))}
		recordActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireUser rejects requests that carry no user identity
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserID(r.Context()); !ok {
			httputil.ErrorFromDomain(w, domain.ErrUnauthorized("User identity required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
