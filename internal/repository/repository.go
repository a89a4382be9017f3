package repository

import (
	"context"
	"cricketacademy/coaching-app/internal/domain"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer. Callers distinguish them with
// errors.Is; ErrUnavailable wraps transient store failures so they are never
// confused with a missing document or a violated constraint.
var (
	ErrNotFound        = RepositoryError("not found")
	ErrCapacityFull    = RepositoryError("program capacity is full")
	ErrMaxBelowCurrent = RepositoryError("maxParticipants below current enrollments")
	ErrDuplicateEmail  = RepositoryError("email already registered")
	ErrUnavailable     = RepositoryError("store unavailable")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProgramFilter narrows a catalog listing. Zero-valued fields place no
// constraint; supplied fields are combined with logical AND.
type ProgramFilter struct {
	Category       string
	Specialization string
	Difficulty     string
	CoachID        primitive.ObjectID // NilObjectID = no constraint
}

// ProgramUpdate carries a partial update; nil fields are left untouched.
type ProgramUpdate struct {
	Title           *string
	Description     *string
	Category        *domain.Category
	Specialization  *domain.Specialization
	Difficulty      *domain.Difficulty
	Duration        *domain.Duration
	TotalSessions   *int
	MaxParticipants *int
	Price           *float64
	StartDate       *time.Time
	EndDate         *time.Time
	Benefits        []string
	Requirements    []string
}

// ProgramRepository defines the interface for interacting with coaching
// program data.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.CoachingProgram) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachingProgram, error)

	// List returns one page of programs matching the filter, newest first,
	// together with the total number of matches across all pages.
	List(ctx context.Context, filter ProgramFilter, skip, limit int64) ([]domain.CoachingProgram, int64, error)

	// Update applies the supplied fields. When MaxParticipants is lowered the
	// write is conditional on currentEnrollments still fitting under the new
	// cap; a conflicting document yields ErrMaxBelowCurrent.
	Update(ctx context.Context, id primitive.ObjectID, update ProgramUpdate) (*domain.CoachingProgram, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// ReserveSeat atomically increments currentEnrollments, but only while it
	// is strictly below maxParticipants. A full program yields ErrCapacityFull
	// and no mutation. ReleaseSeat is the inverse and floors at zero.
	ReserveSeat(ctx context.Context, id primitive.ObjectID) error
	ReleaseSeat(ctx context.Context, id primitive.ObjectID) error

	// AddMaterial appends one material to the program's sequence, preserving
	// insertion order, and returns the updated program.
	AddMaterial(ctx context.Context, id primitive.ObjectID, material domain.Material) (*domain.CoachingProgram, error)
}

// CoachRepository defines the interface for interacting with coach profiles.
type CoachRepository interface {
	Create(ctx context.Context, coach *domain.Coach) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Coach, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Coach, error)

	// AddProgram / RemoveProgram keep the assignedPrograms index consistent
	// with CoachingProgram.CoachID.
	AddProgram(ctx context.Context, coachID, programID primitive.ObjectID) error
	RemoveProgram(ctx context.Context, coachID, programID primitive.ObjectID) error

	ReplaceAvailability(ctx context.Context, coachID primitive.ObjectID, slots []domain.AvailabilitySlot) (*domain.Coach, error)
}

// UserRepository defines the interface for interacting with user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}
