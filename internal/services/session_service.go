package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"field-agent/internal/models"
	"field-agent/internal/remote"
)

var (
	ErrNoSession          = errors.New("not signed in")
	ErrInvalidCredentials = errors.New("invalid user id or password")
)

// Authenticator is the part of the remote client used to sign in
type Authenticator interface {
	Login(ctx context.Context, userID, password string) (*remote.LoginResponse, error)
}

// SessionService holds the signed-in employee in memory. It satisfies
// remote.Credentials so the client can build Basic-Auth headers from it.
type SessionService struct {
	Auth   Authenticator
	logger *zap.Logger

	mu      sync.RWMutex
	current *models.Session
}

func NewSessionService(auth Authenticator, logger *zap.Logger) *SessionService {
	return &SessionService{Auth: auth, logger: logger}
}

// Login verifies the credentials against /flutter/login/ and starts a session
func (s *SessionService) Login(ctx context.Context, req *models.LoginRequest) (*models.Session, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" || req.Password == "" {
		return nil, &ValidationError{Field: "userid", Message: "user id and password are required"}
	}

	resp, err := s.Auth.Login(ctx, userID, req.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !loginSucceeded(resp.Status) {
		s.logger.Info("login rejected", zap.String("user_id", userID), zap.String("status", resp.Status))
		return nil, ErrInvalidCredentials
	}

	name := resp.Name
	if name == "" {
		name = userID
	}
	session := &models.Session{UserID: userID, Password: req.Password, Name: name}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	s.logger.Info("signed in", zap.String("user_id", userID))
	copied := *session
	return &copied, nil
}

func loginSucceeded(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "true", "ok":
		return true
	}
	return false
}

// Start sets the session directly, for the CLI which receives credentials as flags
func (s *SessionService) Start(userID, password, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &models.Session{UserID: userID, Password: password, Name: name}
}

func (s *SessionService) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Current returns a copy of the session or ErrNoSession
func (s *SessionService) Current() (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Session{}, ErrNoSession
	}
	return *s.current, nil
}

// UserID returns the signed-in user id or ErrNoSession
func (s *SessionService) UserID() (string, error) {
	session, err := s.Current()
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}

// Credentials implements remote.Credentials
func (s *SessionService) Credentials() (string, string, bool) {
	session, err := s.Current()
	if err != nil {
		return "", "", false
	}
	return session.UserID, session.Password, true
}
