package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"regdesk/internal/common/errors"
	"regdesk/internal/common/logger"
	"regdesk/internal/models"
)

// Manager is the session context handed to whatever performs authenticated
// actions. Nothing reads the session except through it.
type Manager struct {
	store     Store
	stationID string
	ttl       time.Duration
	logger    logger.Logger
	now       func() time.Time
}

func NewManager(store Store, stationID string, ttl time.Duration, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Manager{
		store:     store,
		stationID: stationID,
		ttl:       ttl,
		logger:    log.WithFields(map[string]interface{}{"component": "session", "station": stationID}),
		now:       time.Now,
	}
}

// Login stores a fresh session for the station and returns it.
func (m *Manager) Login(ctx context.Context, operator models.Operator, token string) (*models.Session, error) {
	if operator.ID == "" {
		return nil, errors.NewLocalValidationError("operator", "Operator ID is required")
	}
	if token == "" {
		return nil, errors.NewLocalValidationError("token", "Token is required")
	}

	now := m.now().UTC()
	sess := &models.Session{
		StationID: m.stationID,
		Operator:  operator,
		Token:     token,
		IssuedAt:  now,
	}
	if m.ttl > 0 {
		sess.ExpiresAt = now.Add(m.ttl)
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	m.logger.Info("Operator logged in", map[string]interface{}{
		"operator":   operator.ID,
		"expires_at": sess.ExpiresAt,
	})
	return sess, nil
}

// Current returns the active session or a SESSION_MISSING error.
func (m *Manager) Current(ctx context.Context) (*models.Session, error) {
	sess, err := m.store.Load(ctx, m.stationID)
	if stderrors.Is(err, ErrNoSession) {
		return nil, errors.NewSessionMissingError(m.stationID)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx, m.stationID); err != nil {
		return err
	}
	m.logger.Info("Operator logged out", nil)
	return nil
}
