// Package services contains server-side business logic. This file holds the
// SessionManager, which binds opaque session ids to users.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/config"
	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repomanager"
	"github.com/notekeeper/notekeeper/internal/timex"
)

const sessionIDSize = 32

// SessionManager issues, resolves and revokes server-side sessions.
// A session is live while now < ExpiresAt; expired rows resolve as absent.
type SessionManager struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	ttl         time.Duration
	now         timex.Clock
}

// NewSessionManager constructs a SessionManager. A nil clock uses timex.Now.
func NewSessionManager(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, now timex.Clock) *SessionManager {
	if now == nil {
		now = timex.Now
	}
	return &SessionManager{db: db, repomanager: m, ttl: cfg.SessionTTL, now: now}
}

// Issue creates a session for userID expiring SessionTTL from now.
func (s *SessionManager) Issue(ctx context.Context, userID string) (*models.Session, error) {
	id, err := common.MakeRandHexString(sessionIDSize)
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	now := s.now()
	session := &models.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return session, nil
}

// Resolve returns the user bound to sessionID. It fails with
// common.ErrUnauthenticated for an empty or unknown id and with
// common.ErrSessionExpired once the session has expired.
func (s *SessionManager) Resolve(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", common.ErrUnauthenticated
	}

	session, err := s.repomanager.Sessions(s.db).Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthenticated
		}
		return "", err
	}
	if !session.Active(s.now()) {
		return "", common.ErrSessionExpired
	}
	return session.UserID, nil
}

// Revoke deletes the session. Revoking an unknown session succeeds.
func (s *SessionManager) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.repomanager.Sessions(s.db).Delete(ctx, sessionID)
}

// RevokeAllExcept deletes every session of userID except keepSessionID.
func (s *SessionManager) RevokeAllExcept(ctx context.Context, userID, keepSessionID string) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteForUserExcept(ctx, userID, keepSessionID)
}

// List returns the live sessions of userID.
func (s *SessionManager) List(ctx context.Context, userID string) ([]*models.Session, error) {
	all, err := s.repomanager.Sessions(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	live := make([]*models.Session, 0, len(all))
	for _, session := range all {
		if session.Active(now) {
			live = append(live, session)
		}
	}
	return live, nil
}

// ReapExpired removes sessions that can no longer resolve.
func (s *SessionManager) ReapExpired(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
}
