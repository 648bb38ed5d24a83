// Package service contains the business logic of the dashboard.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, authorizes, orchestrates
//	Repository (Data layer)  → reads/writes the settings store
//
// Services take repository interfaces, never *sqlite.DB, so tests can pass
// in-memory fakes (see the _test.go files in this package).
//
// Every mutating method takes the caller's session and runs the guild
// authorization check BEFORE touching the store. A 401 or 403 therefore never
// leaves a partial write behind.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/guild-dashboard/internal/apperror"
	"github.com/sakif/guild-dashboard/internal/auth"
	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/repository"
)

// SessionService turns a Discord identity into a dashboard session and
// resolves the session cookie back into that session on every request.
//
//	AuthHandler → SessionService.Login   → UserRepository + SessionRepository
//	                                     ↘ TokenService (JWT naming the session row)
//	LoadSession → SessionService.Resolve → TokenService + SessionRepository
type SessionService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *auth.TokenService
	ttl      time.Duration
	adminIDs []string
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionService wires a SessionService. adminIDs are the Discord ids that
// are treated as globally privileged (admin of every guild).
func NewSessionService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *auth.TokenService,
	ttl time.Duration,
	adminIDs []string,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		adminIDs: adminIDs,
		logger:   logger,
		now:      time.Now,
	}
}

// Login records the user, opens a session holding a snapshot of their guild
// memberships, and returns the session together with the signed cookie token.
//
// WHAT THIS METHOD DOES NOT DO:
//   - It does NOT set cookies (that's the handler's job)
//   - It does NOT talk to Discord (the handler passes in the identity)
func (s *SessionService) Login(ctx context.Context, identity *auth.DiscordIdentity) (*model.Session, string, error) {
	if identity == nil || identity.ID == "" {
		return nil, "", fmt.Errorf("service/session: discord identity must not be empty")
	}

	user := &model.User{
		DiscordID:   identity.ID,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		AvatarURL:   identity.AvatarURL,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, "", fmt.Errorf("service/session: upserting user (discordID=%s): %w", identity.ID, err)
	}

	displayName := identity.DisplayName
	if displayName == "" {
		displayName = identity.Username
	}

	now := s.now()
	sess := &model.Session{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		DiscordID:   identity.ID,
		DisplayName: displayName,
		Email:       identity.Email,
		AvatarURL:   identity.AvatarURL,
		IsAdmin:     slices.Contains(s.adminIDs, identity.ID),
		Guilds:      identity.Guilds,
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
	}
	if sess.Guilds == nil {
		sess.Guilds = []model.GuildMembership{}
	}

	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("service/session: storing session for user %s: %w", user.ID, err)
	}

	token, err := s.tokens.Generate(sess.ID, s.ttl)
	if err != nil {
		return nil, "", fmt.Errorf("service/session: issuing token for session %s: %w", sess.ID, err)
	}

	s.logger.Info("session opened",
		slog.String("userID", user.ID),
		slog.String("discordID", identity.ID),
		slog.Int("guilds", len(sess.Guilds)),
		slog.Bool("globalAdmin", sess.IsAdmin),
	)

	return sess, token, nil
}

// Resolve returns the session named by token, or nil.
//
// Missing, malformed, tampered and expired credentials all resolve to nil.
// Callers only ever see "authenticated" or "not authenticated"; store failures
// are logged here and also resolve to nil.
func (s *SessionService) Resolve(ctx context.Context, token string) *model.Session {
	if token == "" {
		return nil
	}

	id, err := s.tokens.Validate(token)
	if err != nil {
		s.logger.Debug("rejected session token", slog.String("error", err.Error()))
		return nil
	}

	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("loading session",
				slog.String("sessionID", id),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	if sess.Expired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, id); err != nil {
			s.logger.Warn("deleting expired session",
				slog.String("sessionID", id),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	return sess
}

// Logout deletes the session named by token. An unknown or invalid token is
// not an error: there is nothing left to revoke.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	id, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("service/session: deleting session %s: %w", id, err)
	}
	s.logger.Info("session closed", slog.String("sessionID", id))
	return nil
}

// PurgeExpired removes every expired session row and returns how many went.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("service/session: purging expired sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged expired sessions", slog.Int64("count", n))
	}
	return n, nil
}
