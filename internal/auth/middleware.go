package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/guild-dashboard/internal/model"
)

// SessionCookieName is the HttpOnly cookie holding the signed session token.
const SessionCookieName = "dashboard_session"

// contextKey is an unexported type used for context keys in this package,
// so no other package can read or shadow the session value.
type contextKey string

const sessionKey contextKey = "session"

// SessionResolver turns a raw cookie value into a session.
//
// Resolve returns nil for a missing, malformed, expired or revoked credential.
// Absence is a normal outcome, not an error.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) *model.Session
}

// LoadSession resolves the session cookie, if any, and stores the result in the
// request context. It never rejects a request; handlers decide whether a
// session is required.
//
// The session is resolved fresh on every request. Nothing is cached between
// requests, so a logout or expiry takes effect on the very next call.
func LoadSession(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := TokenFromRequest(r); token != "" {
				if sess := resolver.Resolve(r.Context(), token); sess != nil {
					r = r.WithContext(WithSession(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects requests that LoadSession left anonymous with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the session LoadSession stored, or (nil, false)
// for an anonymous request.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*model.Session)
	return sess, ok && sess != nil
}

// TokenFromRequest returns the session cookie value, else the token of an
// "Authorization: Bearer" header, else "".
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// SetSessionCookie writes the session cookie. secure should be true whenever
// the dashboard is served over HTTPS.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}
