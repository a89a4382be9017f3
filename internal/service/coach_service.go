package service

import (
	"context"
	"cricketacademy/coaching-app/internal/domain"
	"cricketacademy/coaching-app/internal/repository"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCoachAlreadyExists = errors.New("user already has a coach profile")
)

// CoachDetail is a coach profile with its user account populated for display.
type CoachDetail struct {
	Coach domain.Coach
	User  *domain.User
}

// --- Service Interface ---
type CoachService interface {
	CreateCoach(ctx context.Context, userID primitive.ObjectID, specializations []string, experience int, availability []domain.AvailabilitySlot) (*domain.Coach, error)
	GetCoach(ctx context.Context, coachID primitive.ObjectID) (*CoachDetail, error)
	ReplaceAvailability(ctx context.Context, coachID primitive.ObjectID, slots []domain.AvailabilitySlot) (*domain.Coach, error)
}

// coachService implements the CoachService interface.
type coachService struct {
	coachRepo repository.CoachRepository
	userRepo  repository.UserRepository
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(coachRepo repository.CoachRepository, userRepo repository.UserRepository) CoachService {
	return &coachService{
		coachRepo: coachRepo,
		userRepo:  userRepo,
	}
}

func validateAvailability(slots []domain.AvailabilitySlot) error {
	for _, slot := range slots {
		if slot.Day == "" || slot.StartTime == "" || slot.EndTime == "" {
			return fmt.Errorf("%w: availability slots need day, startTime and endTime", ErrValidationFailed)
		}
	}
	return nil
}

// CreateCoach creates a coaching profile for an existing user account.
func (s *coachService) CreateCoach(ctx context.Context, userID primitive.ObjectID, specializations []string, experience int, availability []domain.AvailabilitySlot) (*domain.Coach, error) {
	if userID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: user is required", ErrValidationFailed)
	}
	if experience < 0 {
		return nil, fmt.Errorf("%w: experience cannot be negative", ErrValidationFailed)
	}
	if err := validateAvailability(availability); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if _, err := s.coachRepo.GetByUserID(ctx, userID); err == nil {
		return nil, ErrCoachAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	coach := &domain.Coach{
		UserID:          userID,
		Specializations: specializations,
		Experience:      experience,
		Availability:    availability,
	}

	coachID, err := s.coachRepo.Create(ctx, coach)
	if err != nil {
		return nil, err
	}

	return s.coachRepo.GetByID(ctx, coachID)
}

// GetCoach fetches a coach profile with its user account populated.
func (s *coachService) GetCoach(ctx context.Context, coachID primitive.ObjectID) (*CoachDetail, error) {
	coach, err := s.coachRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}

	detail := &CoachDetail{Coach: *coach}

	user, err := s.userRepo.GetByID(ctx, coach.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return detail, nil
		}
		return nil, err
	}
	detail.User = user

	return detail, nil
}

// ReplaceAvailability swaps the coach's declarative weekly schedule.
func (s *coachService) ReplaceAvailability(ctx context.Context, coachID primitive.ObjectID, slots []domain.AvailabilitySlot) (*domain.Coach, error) {
	if err := validateAvailability(slots); err != nil {
		return nil, err
	}

	updated, err := s.coachRepo.ReplaceAvailability(ctx, coachID, slots)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	return updated, nil
}
