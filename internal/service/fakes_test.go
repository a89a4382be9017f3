package service

import (
	"context"
	"cricketacademy/coaching-app/internal/domain"
	"cricketacademy/coaching-app/internal/repository"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the Mongo implementations'
// contracts, including the atomicity of the seat counter operations, so the
// service tests exercise the same semantics the real store provides.

type fakeProgramRepo struct {
	mu       sync.Mutex
	programs map[primitive.ObjectID]*domain.CoachingProgram
	seq      int
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{programs: map[primitive.ObjectID]*domain.CoachingProgram{}}
}

func (r *fakeProgramRepo) Create(ctx context.Context, program *domain.CoachingProgram) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	program.ID = primitive.NewObjectID()
	program.CurrentEnrollments = 0
	r.seq++
	// Monotonic timestamps keep the newest-first ordering deterministic.
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.seq) * time.Second)
	program.CreatedAt = created
	program.UpdatedAt = created

	clone := *program
	r.programs[program.ID] = &clone
	return program.ID, nil
}

func (r *fakeProgramRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachingProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	program, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *program
	return &clone, nil
}

func matches(p *domain.CoachingProgram, filter repository.ProgramFilter) bool {
	if filter.Category != "" && string(p.Category) != filter.Category {
		return false
	}
	if filter.Specialization != "" && string(p.Specialization) != filter.Specialization {
		return false
	}
	if filter.Difficulty != "" && string(p.Difficulty) != filter.Difficulty {
		return false
	}
	if filter.CoachID != primitive.NilObjectID && p.CoachID != filter.CoachID {
		return false
	}
	return true
}

func (r *fakeProgramRepo) List(ctx context.Context, filter repository.ProgramFilter, skip, limit int64) ([]domain.CoachingProgram, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []domain.CoachingProgram{}
	for _, p := range r.programs {
		if matches(p, filter) {
			matched = append(matched, *p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})

	total := int64(len(matched))
	if skip >= total {
		return []domain.CoachingProgram{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return matched[skip:end], total, nil
}

func (r *fakeProgramRepo) Update(ctx context.Context, id primitive.ObjectID, update repository.ProgramUpdate) (*domain.CoachingProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	program, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.MaxParticipants != nil && program.CurrentEnrollments > *update.MaxParticipants {
		return nil, repository.ErrMaxBelowCurrent
	}

	if update.Title != nil {
		program.Title = *update.Title
	}
	if update.Description != nil {
		program.Description = *update.Description
	}
	if update.Category != nil {
		program.Category = *update.Category
	}
	if update.Specialization != nil {
		program.Specialization = *update.Specialization
	}
	if update.Difficulty != nil {
		program.Difficulty = *update.Difficulty
	}
	if update.Duration != nil {
		program.Duration = *update.Duration
	}
	if update.TotalSessions != nil {
		program.TotalSessions = *update.TotalSessions
	}
	if update.MaxParticipants != nil {
		program.MaxParticipants = *update.MaxParticipants
	}
	if update.Price != nil {
		program.Price = *update.Price
	}
	if update.StartDate != nil {
		program.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		program.EndDate = *update.EndDate
	}
	if update.Benefits != nil {
		program.Benefits = update.Benefits
	}
	if update.Requirements != nil {
		program.Requirements = update.Requirements
	}
	program.UpdatedAt = time.Now().UTC()

	clone := *program
	return &clone, nil
}

func (r *fakeProgramRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.programs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.programs, id)
	return nil
}

func (r *fakeProgramRepo) ReserveSeat(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	program, ok := r.programs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if program.CurrentEnrollments >= program.MaxParticipants {
		return repository.ErrCapacityFull
	}
	program.CurrentEnrollments++
	program.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeProgramRepo) ReleaseSeat(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	program, ok := r.programs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if program.CurrentEnrollments > 0 {
		program.CurrentEnrollments--
		program.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *fakeProgramRepo) AddMaterial(ctx context.Context, id primitive.ObjectID, material domain.Material) (*domain.CoachingProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	program, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	program.Materials = append(program.Materials, material)
	program.UpdatedAt = time.Now().UTC()

	clone := *program
	return &clone, nil
}

type fakeCoachRepo struct {
	mu      sync.Mutex
	coaches map[primitive.ObjectID]*domain.Coach
}

func newFakeCoachRepo() *fakeCoachRepo {
	return &fakeCoachRepo{coaches: map[primitive.ObjectID]*domain.Coach{}}
}

func (r *fakeCoachRepo) Create(ctx context.Context, coach *domain.Coach) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coach.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	coach.CreatedAt = now
	coach.UpdatedAt = now

	clone := *coach
	r.coaches[coach.ID] = &clone
	return coach.ID, nil
}

func (r *fakeCoachRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Coach, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coach, ok := r.coaches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *coach
	return &clone, nil
}

func (r *fakeCoachRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Coach, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, coach := range r.coaches {
		if coach.UserID == userID {
			clone := *coach
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCoachRepo) AddProgram(ctx context.Context, coachID, programID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	coach, ok := r.coaches[coachID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range coach.AssignedPrograms {
		if id == programID {
			return nil
		}
	}
	coach.AssignedPrograms = append(coach.AssignedPrograms, programID)
	return nil
}

func (r *fakeCoachRepo) RemoveProgram(ctx context.Context, coachID, programID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	coach, ok := r.coaches[coachID]
	if !ok {
		return repository.ErrNotFound
	}
	kept := coach.AssignedPrograms[:0]
	for _, id := range coach.AssignedPrograms {
		if id != programID {
			kept = append(kept, id)
		}
	}
	coach.AssignedPrograms = kept
	return nil
}

func (r *fakeCoachRepo) ReplaceAvailability(ctx context.Context, coachID primitive.ObjectID, slots []domain.AvailabilitySlot) (*domain.Coach, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coach, ok := r.coaches[coachID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	coach.Availability = slots
	coach.UpdatedAt = time.Now().UTC()

	clone := *coach
	return &clone, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateEmail
		}
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	r.users[user.ID] = &clone
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

// fakeFileStorage records presign requests without talking to any backend.
type fakeFileStorage struct {
	lastKey string
}

func (s *fakeFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	s.lastKey = objectKey
	return "https://storage.test/upload/" + objectKey, nil
}

func (s *fakeFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (s *fakeFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return nil
}
