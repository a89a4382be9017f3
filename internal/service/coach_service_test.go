package service

import (
	"context"
	"cricketacademy/coaching-app/internal/domain"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newCoachFixture(t *testing.T) (CoachService, *fakeCoachRepo, *fakeUserRepo, primitive.ObjectID) {
	t.Helper()

	coachRepo := newFakeCoachRepo()
	userRepo := newFakeUserRepo()

	userID, err := userRepo.Create(context.Background(), &domain.User{
		FirstName:    "Meera",
		LastName:     "Nair",
		Email:        "meera.nair@example.com",
		PasswordHash: "x",
		Role:         domain.RoleCoach,
	})
	require.NoError(t, err)

	return NewCoachService(coachRepo, userRepo), coachRepo, userRepo, userID
}

func TestCreateCoach(t *testing.T) {
	svc, _, _, userID := newCoachFixture(t)
	ctx := context.Background()

	coach, err := svc.CreateCoach(ctx, userID, []string{"bowling"}, 6, []domain.AvailabilitySlot{
		{Day: "Monday", StartTime: "17:00", EndTime: "19:00"},
	})
	require.NoError(t, err)
	require.Equal(t, userID, coach.UserID)
	require.Equal(t, 6, coach.Experience)
	require.Len(t, coach.Availability, 1)

	// One profile per user account.
	_, err = svc.CreateCoach(ctx, userID, nil, 1, nil)
	require.ErrorIs(t, err, ErrCoachAlreadyExists)
}

func TestCreateCoachValidation(t *testing.T) {
	svc, _, _, userID := newCoachFixture(t)
	ctx := context.Background()

	_, err := svc.CreateCoach(ctx, primitive.NilObjectID, nil, 0, nil)
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.CreateCoach(ctx, userID, nil, -1, nil)
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.CreateCoach(ctx, userID, nil, 3, []domain.AvailabilitySlot{{Day: "Tuesday"}})
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.CreateCoach(ctx, primitive.NewObjectID(), nil, 3, nil)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetCoach(t *testing.T) {
	svc, _, _, userID := newCoachFixture(t)
	ctx := context.Background()

	coach, err := svc.CreateCoach(ctx, userID, []string{"batting"}, 9, nil)
	require.NoError(t, err)

	detail, err := svc.GetCoach(ctx, coach.ID)
	require.NoError(t, err)
	require.Equal(t, coach.ID, detail.Coach.ID)
	require.NotNil(t, detail.User)
	require.Equal(t, "meera.nair@example.com", detail.User.Email)

	_, err = svc.GetCoach(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrCoachNotFound)
}

func TestReplaceAvailability(t *testing.T) {
	svc, _, _, userID := newCoachFixture(t)
	ctx := context.Background()

	coach, err := svc.CreateCoach(ctx, userID, nil, 4, []domain.AvailabilitySlot{
		{Day: "Monday", StartTime: "17:00", EndTime: "19:00"},
	})
	require.NoError(t, err)

	updated, err := svc.ReplaceAvailability(ctx, coach.ID, []domain.AvailabilitySlot{
		{Day: "Saturday", StartTime: "09:00", EndTime: "12:00"},
		{Day: "Sunday", StartTime: "09:00", EndTime: "12:00"},
	})
	require.NoError(t, err)
	require.Len(t, updated.Availability, 2)
	require.Equal(t, "Saturday", updated.Availability[0].Day)

	_, err = svc.ReplaceAvailability(ctx, coach.ID, []domain.AvailabilitySlot{{StartTime: "09:00"}})
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.ReplaceAvailability(ctx, primitive.NewObjectID(), nil)
	require.ErrorIs(t, err, ErrCoachNotFound)
}
