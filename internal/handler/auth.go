package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/guild-dashboard/internal/auth"
	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/service"
)

const stateCookieName = "oauth_state"

// IdentityProvider is the OAuth side of login. *auth.DiscordProvider implements it.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.DiscordIdentity, error)
}

// SessionManager opens and closes sessions. *service.SessionService implements it.
type SessionManager interface {
	Login(ctx context.Context, identity *auth.DiscordIdentity) (*model.Session, string, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler manages the Discord OAuth login flow and the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleDiscordLogin    → redirect the browser to Discord's authorization page
//   - HandleDiscordCallback → receive the code, open a session, set the cookie
//   - HandleLogout          → revoke the session and clear the cookie
//   - HandleSession         → tell the dashboard who is logged in
type AuthHandler struct {
	provider IdentityProvider // nil when Discord login is not configured
	sessions SessionManager
	appURL   string // where the browser lands after login
	secure   bool   // Secure flag on cookies
	logger   *slog.Logger
}

func NewAuthHandler(provider IdentityProvider, sessions SessionManager, appURL string, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		sessions: sessions,
		appURL:   strings.TrimRight(appURL, "/"),
		secure:   secure,
		logger:   logger,
	}
}

func (h *AuthHandler) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, h.appURL+path, http.StatusSeeOther)
}

// HandleDiscordLogin redirects the user to Discord's authorization page.
//
// HTTP: GET /api/auth/discord/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived HttpOnly cookie and into the
// authorization URL. The callback only proceeds when both match.
func (h *AuthHandler) HandleDiscordLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", cacheNoStore)
	if h.provider == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "Discord login is not configured",
		})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleDiscordCallback completes the OAuth login flow.
//
// HTTP: GET /api/auth/discord/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for the Discord identity and guild list
//  3. Open a session
//  4. Store the session token in an HttpOnly cookie
//  5. Redirect to the dashboard
func (h *AuthHandler) HandleDiscordCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", cacheNoStore)
	if h.provider == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "Discord login is not configured",
		})
		return
	}

	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_state", Message: "invalid OAuth state"})
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_state", Message: "invalid OAuth state"})
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		h.redirect(w, r, "/?auth=denied")
		return
	}

	// --- Step 2: Exchange code for the Discord identity ---
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "missing OAuth code"})
		return
	}

	identity, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: Discord exchange failed", slog.String("error", err.Error()))
		h.redirect(w, r, "/?auth=failed")
		return
	}

	// --- Step 3: Open the session ---
	sess, token, err := h.sessions.Login(r.Context(), identity)
	if err != nil {
		h.logger.Error("auth callback: login failed",
			slog.String("discordID", identity.ID),
			slog.String("error", err.Error()),
		)
		h.redirect(w, r, "/?auth=failed")
		return
	}

	// --- Step 4: Session cookie, same lifetime as the session row ---
	auth.SetSessionCookie(w, token, sess.ExpiresAt, h.secure)

	// --- Step 5: Redirect to the dashboard ---
	h.redirect(w, r, "/dashboard")
}

// HandleLogout revokes the session and clears the cookie.
//
// HTTP: POST /api/auth/logout
//
// Unlike a stateless JWT logout, deleting the session row means the token
// stops working immediately, even if a copy of the cookie survives somewhere.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", cacheNoStore)

	if h.sessions != nil {
		if err := h.sessions.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
			writeError(w, err)
			return
		}
	}
	auth.ClearSessionCookie(w, h.secure)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "logged out"})
}

// sessionUser is the public view of a session's identity.
type sessionUser struct {
	ID          string `json:"id"`
	DiscordID   string `json:"discordId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	IsAdmin     bool   `json:"isAdmin"`
}

// SessionResponse is the body of GET /api/auth/session.
type SessionResponse struct {
	Authenticated bool                    `json:"authenticated"`
	User          *sessionUser            `json:"user,omitempty"`
	Guilds        []model.GuildMembership `json:"guilds,omitempty"`
	ExpiresAt     *time.Time              `json:"expiresAt,omitempty"`
}

// HandleSession reports whether the caller is logged in.
//
// HTTP: GET /api/auth/session
//
// Always 200: an anonymous caller gets {"authenticated": false}. The response
// is never cached, so a logout shows up on the very next poll.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess == nil {
		writeCachedJSON(w, cacheSession, SessionResponse{Authenticated: false})
		return
	}

	expires := sess.ExpiresAt
	writeCachedJSON(w, cacheSession, SessionResponse{
		Authenticated: true,
		User: &sessionUser{
			ID:          sess.UserID,
			DiscordID:   sess.DiscordID,
			DisplayName: sess.DisplayName,
			Email:       sess.Email,
			AvatarURL:   sess.AvatarURL,
			IsAdmin:     sess.IsAdmin,
		},
		Guilds:    service.ManageableGuilds(sess),
		ExpiresAt: &expires,
	})
}
