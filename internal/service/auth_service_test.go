package service

import (
	"context"
	"cricketacademy/coaching-app/internal/domain"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewAuthService(userRepo, "test-secret", 0)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Arjun", "Patel", "arjun@example.com", "supersecret1", domain.RoleCoach)
	require.NoError(t, err)
	require.Equal(t, domain.RoleCoach, user.Role)
	require.Empty(t, user.PasswordHash)

	_, err = svc.Register(ctx, "Arjun", "Patel", "arjun@example.com", "supersecret1", domain.RoleCoach)
	require.ErrorIs(t, err, ErrUserAlreadyExists)

	token, loggedIn, err := svc.Login(ctx, "arjun@example.com", "supersecret1")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)
	require.Empty(t, loggedIn.PasswordHash)

	// Token carries the uid and role claims the middleware relies on.
	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, user.ID.Hex(), claims.UserID)
	require.Equal(t, domain.RoleCoach, claims.Role)
}

func TestLoginFailures(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewAuthService(userRepo, "test-secret", 0)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Arjun", "Patel", "arjun@example.com", "supersecret1", domain.RoleStudent)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "arjun@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(ctx, "nobody@example.com", "supersecret1")
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}
