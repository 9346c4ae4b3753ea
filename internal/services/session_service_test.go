package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"field-agent/internal/models"
	"field-agent/internal/remote"
)

func TestSessionService_Login(t *testing.T) {
	backend := newFakeBackend()
	svc := NewSessionService(backend, zap.NewNop())

	_, _, ok := svc.Credentials()
	assert.False(t, ok)

	for _, status := range []string{"success", "TRUE", "ok"} {
		t.Run(status, func(t *testing.T) {
			backend.login = func(userID, password string) (*remote.LoginResponse, error) {
				return &remote.LoginResponse{Status: status, Name: "Priya"}, nil
			}
			session, err := svc.Login(context.Background(), &models.LoginRequest{UserID: " emp9 ", Password: "pw"})
			require.NoError(t, err)
			assert.Equal(t, "emp9", session.UserID)
			assert.Equal(t, "Priya", session.Name)

			user, pass, ok := svc.Credentials()
			assert.True(t, ok)
			assert.Equal(t, "emp9", user)
			assert.Equal(t, "pw", pass)
		})
	}
}

func TestSessionService_LoginFailures(t *testing.T) {
	backend := newFakeBackend()
	svc := NewSessionService(backend, zap.NewNop())

	_, err := svc.Login(context.Background(), &models.LoginRequest{UserID: "", Password: "pw"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, backend.Calls("login"))

	backend.login = func(userID, password string) (*remote.LoginResponse, error) {
		return &remote.LoginResponse{Status: "error"}, nil
	}
	_, err = svc.Login(context.Background(), &models.LoginRequest{UserID: "emp1", Password: "bad"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.UserID()
	assert.ErrorIs(t, err, ErrNoSession)

	backend.login = func(userID, password string) (*remote.LoginResponse, error) {
		return nil, &remote.Error{Kind: remote.KindNetwork, Op: "login"}
	}
	_, err = svc.Login(context.Background(), &models.LoginRequest{UserID: "emp1", Password: "pw"})
	assert.Equal(t, remote.KindNetwork, remote.KindOf(err))
}

func TestSessionService_Logout(t *testing.T) {
	svc := NewSessionService(newFakeBackend(), zap.NewNop())
	svc.Start("emp1", "pw", "")
	_, err := svc.Current()
	require.NoError(t, err)

	svc.Logout()
	_, err = svc.Current()
	assert.ErrorIs(t, err, ErrNoSession)
}
