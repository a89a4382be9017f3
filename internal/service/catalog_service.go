package service

import (
	"context"
	"cricketacademy/coaching-app/internal/domain"
	"cricketacademy/coaching-app/internal/repository"
	"cricketacademy/coaching-app/internal/storage"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrProgramNotFound  = errors.New("coaching program not found")
	ErrCoachNotFound    = errors.New("coach not found")
	ErrCapacityExceeded = errors.New("program is full")
)

// ListFilter carries the optional discovery filters from the API. Values are
// raw strings on purpose: an unrecognized enum value is a predicate nothing
// matches, so it yields an empty page rather than an error.
type ListFilter struct {
	Category       string
	Specialization string
	Difficulty     string
	CoachID        string // hex ObjectID
}

// ProgramPage is one page of catalog results.
type ProgramPage struct {
	Docs        []domain.CoachingProgram
	TotalCount  int64
	TotalPages  int
	CurrentPage int
}

// ProgramDetail is a program with its coach (and the coach's user account)
// populated for display.
type ProgramDetail struct {
	Program   domain.CoachingProgram
	Coach     *domain.Coach
	CoachUser *domain.User
}

// ProgramStats are the derived per-program metrics. Computing them never
// mutates state.
type ProgramStats struct {
	SeatsRemaining int
	FillRate       float64
	TotalSessions  int
	MaterialCount  int
	DaysRemaining  int
}

// CreateProgramInput are the caller-supplied fields for a new program.
// TotalSessions is optional; when omitted it defaults to
// weeks x sessionsPerWeek.
type CreateProgramInput struct {
	Title           string
	Description     string
	Category        domain.Category
	Specialization  domain.Specialization
	Difficulty      domain.Difficulty
	CoachID         primitive.ObjectID
	Duration        domain.Duration
	TotalSessions   *int
	MaxParticipants int
	Price           float64
	StartDate       time.Time
	EndDate         time.Time
	Benefits        []string
	Requirements    []string
}

// MaterialInput are the caller-supplied fields for a new material.
type MaterialInput struct {
	Title       string
	Type        domain.MaterialType
	Description string
	URL         string
}

// --- Service Interface ---
type CatalogService interface {
	List(ctx context.Context, filter ListFilter, page, pageSize int) (*ProgramPage, error)
	ListByCoach(ctx context.Context, coachID primitive.ObjectID, filter ListFilter, page, pageSize int) (*ProgramPage, error)
	GetProgram(ctx context.Context, programID primitive.ObjectID) (*ProgramDetail, error)
	CreateProgram(ctx context.Context, input CreateProgramInput) (*domain.CoachingProgram, error)
	UpdateProgram(ctx context.Context, programID primitive.ObjectID, update repository.ProgramUpdate) (*domain.CoachingProgram, error)
	DeleteProgram(ctx context.Context, programID primitive.ObjectID) error
	AddMaterial(ctx context.Context, programID primitive.ObjectID, input MaterialInput) (*domain.CoachingProgram, error)
	MaterialUploadURL(ctx context.Context, programID primitive.ObjectID, filename, contentType string) (uploadURL, objectKey string, err error)
	GetStats(ctx context.Context, programID primitive.ObjectID) (*ProgramStats, error)
	ReserveSeat(ctx context.Context, programID primitive.ObjectID) (*domain.CoachingProgram, error)
	ReleaseSeat(ctx context.Context, programID primitive.ObjectID) (*domain.CoachingProgram, error)
}

// --- Service Implementation ---

// catalogService implements the CatalogService interface.
type catalogService struct {
	programRepo     repository.ProgramRepository
	coachRepo       repository.CoachRepository
	userRepo        repository.UserRepository
	fileStorage     storage.FileStorage
	defaultPageSize int
	maxPageSize     int
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(
	programRepo repository.ProgramRepository,
	coachRepo repository.CoachRepository,
	userRepo repository.UserRepository,
	fileStorage storage.FileStorage,
	defaultPageSize, maxPageSize int,
) CatalogService {
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &catalogService{
		programRepo:     programRepo,
		coachRepo:       coachRepo,
		userRepo:        userRepo,
		fileStorage:     fileStorage,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// emptyPage is what an unmatchable filter produces: zero docs, zero pages.
func emptyPage(page int) *ProgramPage {
	return &ProgramPage{Docs: []domain.CoachingProgram{}, TotalCount: 0, TotalPages: 0, CurrentPage: page}
}

// resolveFilter converts the raw filter strings into a repository filter.
// The second return value is false when a supplied value can never match
// (unknown enum, malformed coach ID), in which case the caller short-circuits
// to an empty page.
func resolveFilter(filter ListFilter) (repository.ProgramFilter, bool) {
	resolved := repository.ProgramFilter{}

	if filter.Category != "" {
		if !domain.Category(filter.Category).IsValid() {
			return resolved, false
		}
		resolved.Category = filter.Category
	}
	if filter.Specialization != "" {
		if !domain.Specialization(filter.Specialization).IsValid() {
			return resolved, false
		}
		resolved.Specialization = filter.Specialization
	}
	if filter.Difficulty != "" {
		if !domain.Difficulty(filter.Difficulty).IsValid() {
			return resolved, false
		}
		resolved.Difficulty = filter.Difficulty
	}
	if filter.CoachID != "" {
		coachID, err := primitive.ObjectIDFromHex(filter.CoachID)
		if err != nil {
			return resolved, false
		}
		resolved.CoachID = coachID
	}
	return resolved, true
}

func (s *catalogService) clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	return page, pageSize
}

// List returns one page of programs matching all supplied filters, newest
// first.
func (s *catalogService) List(ctx context.Context, filter ListFilter, page, pageSize int) (*ProgramPage, error) {
	page, pageSize = s.clampPaging(page, pageSize)

	resolved, matchable := resolveFilter(filter)
	if !matchable {
		return emptyPage(page), nil
	}

	skip := int64(page-1) * int64(pageSize)
	docs, total, err := s.programRepo.List(ctx, resolved, skip, int64(pageSize))
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &ProgramPage{
		Docs:        docs,
		TotalCount:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
	}, nil
}

// ListByCoach lists a coach's programs. A missing coach is NotFound, which is
// distinct from an existing coach with zero programs (an empty page).
func (s *catalogService) ListByCoach(ctx context.Context, coachID primitive.ObjectID, filter ListFilter, page, pageSize int) (*ProgramPage, error) {
	if _, err := s.coachRepo.GetByID(ctx, coachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}

	filter.CoachID = coachID.Hex()
	return s.List(ctx, filter, page, pageSize)
}

// GetProgram fetches a program with its coach and the coach's user account
// populated. A dangling coach reference is tolerated here: the program is
// still returned for display, just without the profile.
func (s *catalogService) GetProgram(ctx context.Context, programID primitive.ObjectID) (*ProgramDetail, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	detail := &ProgramDetail{Program: *program}

	coach, err := s.coachRepo.GetByID(ctx, program.CoachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return detail, nil
		}
		return nil, err
	}
	detail.Coach = coach

	user, err := s.userRepo.GetByID(ctx, coach.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return detail, nil
		}
		return nil, err
	}
	detail.CoachUser = user

	return detail, nil
}

func validateCreateInput(input CreateProgramInput) error {
	switch {
	case input.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidationFailed)
	case input.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidationFailed)
	case !input.Category.IsValid():
		return fmt.Errorf("%w: unrecognized category %q", ErrValidationFailed, input.Category)
	case !input.Specialization.IsValid():
		return fmt.Errorf("%w: unrecognized specialization %q", ErrValidationFailed, input.Specialization)
	case !input.Difficulty.IsValid():
		return fmt.Errorf("%w: unrecognized difficulty %q", ErrValidationFailed, input.Difficulty)
	case input.Duration.Weeks <= 0 || input.Duration.SessionsPerWeek <= 0:
		return fmt.Errorf("%w: duration weeks and sessionsPerWeek must be positive", ErrValidationFailed)
	case input.TotalSessions != nil && *input.TotalSessions < 0:
		return fmt.Errorf("%w: totalSessions cannot be negative", ErrValidationFailed)
	case input.MaxParticipants <= 0:
		return fmt.Errorf("%w: maxParticipants must be positive", ErrValidationFailed)
	case input.Price < 0:
		return fmt.Errorf("%w: price cannot be negative", ErrValidationFailed)
	case input.StartDate.IsZero() || input.EndDate.IsZero():
		return fmt.Errorf("%w: startDate and endDate are required", ErrValidationFailed)
	case !input.EndDate.After(input.StartDate):
		return fmt.Errorf("%w: endDate must be after startDate", ErrValidationFailed)
	}
	return nil
}

// CreateProgram validates the input, stores the program, and records it in
// the owning coach's assignedPrograms index.
func (s *catalogService) CreateProgram(ctx context.Context, input CreateProgramInput) (*domain.CoachingProgram, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	if input.CoachID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: coach is required", ErrValidationFailed)
	}

	// The coach reference must resolve before anything is written.
	if _, err := s.coachRepo.GetByID(ctx, input.CoachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}

	totalSessions := input.Duration.Weeks * input.Duration.SessionsPerWeek
	if input.TotalSessions != nil {
		totalSessions = *input.TotalSessions
	}

	program := &domain.CoachingProgram{
		Title:           input.Title,
		Description:     input.Description,
		Category:        input.Category,
		Specialization:  input.Specialization,
		Difficulty:      input.Difficulty,
		CoachID:         input.CoachID,
		Duration:        input.Duration,
		TotalSessions:   totalSessions,
		MaxParticipants: input.MaxParticipants,
		Price:           input.Price,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Benefits:        input.Benefits,
		Requirements:    input.Requirements,
	}

	programID, err := s.programRepo.Create(ctx, program)
	if err != nil {
		return nil, err
	}

	if err := s.coachRepo.AddProgram(ctx, input.CoachID, programID); err != nil {
		// Keep the assignedPrograms index consistent: if the coach row vanished
		// between the check and the index write, undo the create.
		_ = s.programRepo.Delete(ctx, programID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}

	return s.programRepo.GetByID(ctx, programID)
}

func validateUpdateInput(update repository.ProgramUpdate) error {
	switch {
	case update.Title != nil && *update.Title == "":
		return fmt.Errorf("%w: title cannot be empty", ErrValidationFailed)
	case update.Description != nil && *update.Description == "":
		return fmt.Errorf("%w: description cannot be empty", ErrValidationFailed)
	case update.Category != nil && !update.Category.IsValid():
		return fmt.Errorf("%w: unrecognized category %q", ErrValidationFailed, *update.Category)
	case update.Specialization != nil && !update.Specialization.IsValid():
		return fmt.Errorf("%w: unrecognized specialization %q", ErrValidationFailed, *update.Specialization)
	case update.Difficulty != nil && !update.Difficulty.IsValid():
		return fmt.Errorf("%w: unrecognized difficulty %q", ErrValidationFailed, *update.Difficulty)
	case update.Duration != nil && (update.Duration.Weeks <= 0 || update.Duration.SessionsPerWeek <= 0):
		return fmt.Errorf("%w: duration weeks and sessionsPerWeek must be positive", ErrValidationFailed)
	case update.TotalSessions != nil && *update.TotalSessions < 0:
		return fmt.Errorf("%w: totalSessions cannot be negative", ErrValidationFailed)
	case update.MaxParticipants != nil && *update.MaxParticipants <= 0:
		return fmt.Errorf("%w: maxParticipants must be positive", ErrValidationFailed)
	case update.Price != nil && *update.Price < 0:
		return fmt.Errorf("%w: price cannot be negative", ErrValidationFailed)
	}
	return nil
}

// UpdateProgram merges the supplied fields into an existing program. The
// coach reference is never updatable; programs do not change hands.
func (s *catalogService) UpdateProgram(ctx context.Context, programID primitive.ObjectID, update repository.ProgramUpdate) (*domain.CoachingProgram, error) {
	if err := validateUpdateInput(update); err != nil {
		return nil, err
	}

	existing, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	// Date ordering is checked against the merged view, since either end may
	// arrive alone.
	startDate := existing.StartDate
	if update.StartDate != nil {
		startDate = *update.StartDate
	}
	endDate := existing.EndDate
	if update.EndDate != nil {
		endDate = *update.EndDate
	}
	if !endDate.After(startDate) {
		return nil, fmt.Errorf("%w: endDate must be after startDate", ErrValidationFailed)
	}

	if update.MaxParticipants != nil && *update.MaxParticipants < existing.CurrentEnrollments {
		return nil, fmt.Errorf("%w: maxParticipants cannot drop below current enrollments (%d)",
			ErrValidationFailed, existing.CurrentEnrollments)
	}

	updated, err := s.programRepo.Update(ctx, programID, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMaxBelowCurrent):
			// A reservation slipped in between our read and the conditional
			// write; same outcome as the pre-check above.
			return nil, fmt.Errorf("%w: maxParticipants cannot drop below current enrollments", ErrValidationFailed)
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return updated, nil
}

// DeleteProgram removes a program and drops it from the owning coach's
// assignedPrograms index.
func (s *catalogService) DeleteProgram(ctx context.Context, programID primitive.ObjectID) error {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return err
	}

	if err := s.programRepo.Delete(ctx, programID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return err
	}

	if err := s.coachRepo.RemoveProgram(ctx, program.CoachID, programID); err != nil {
		// A missing coach row has nothing left to stay consistent with.
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return nil
}

// AddMaterial validates and appends one material record to a program.
func (s *catalogService) AddMaterial(ctx context.Context, programID primitive.ObjectID, input MaterialInput) (*domain.CoachingProgram, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: material title is required", ErrValidationFailed)
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("%w: unrecognized material type %q", ErrValidationFailed, input.Type)
	}

	material := domain.Material{
		Title:       input.Title,
		Type:        input.Type,
		Description: input.Description,
		URL:         input.URL,
	}

	updated, err := s.programRepo.AddMaterial(ctx, programID, material)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return updated, nil
}

// MaterialUploadURL mints a presigned PUT URL a coach can upload a material
// file to. Only the resulting URL/key ever reaches the catalog; the bytes go
// straight to object storage.
func (s *catalogService) MaterialUploadURL(ctx context.Context, programID primitive.ObjectID, filename, contentType string) (string, string, error) {
	if filename == "" || contentType == "" {
		return "", "", fmt.Errorf("%w: filename and contentType are required", ErrValidationFailed)
	}

	if _, err := s.programRepo.GetByID(ctx, programID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrProgramNotFound
		}
		return "", "", err
	}

	objectKey := fmt.Sprintf("materials/%s/%s%s", programID.Hex(), uuid.NewString(), path.Ext(filename))
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}
	return uploadURL, objectKey, nil
}

// GetStats computes the derived metrics for one program from its stored
// state.
func (s *catalogService) GetStats(ctx context.Context, programID primitive.ObjectID) (*ProgramStats, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	fillRate := 0.0
	if program.MaxParticipants > 0 {
		fillRate = float64(program.CurrentEnrollments) / float64(program.MaxParticipants)
	}

	daysRemaining := int(time.Until(program.EndDate).Hours() / 24)
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	return &ProgramStats{
		SeatsRemaining: program.SeatsRemaining(),
		FillRate:       fillRate,
		TotalSessions:  program.TotalSessions,
		MaterialCount:  len(program.Materials),
		DaysRemaining:  daysRemaining,
	}, nil
}

// ReserveSeat claims one seat via the repository's conditional increment and
// returns the program as it stands afterwards. Capacity decisions are never
// made from a previously fetched counter.
func (s *catalogService) ReserveSeat(ctx context.Context, programID primitive.ObjectID) (*domain.CoachingProgram, error) {
	if err := s.programRepo.ReserveSeat(ctx, programID); err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityFull):
			return nil, ErrCapacityExceeded
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return s.programRepo.GetByID(ctx, programID)
}

// ReleaseSeat returns one seat on enrollment cancellation.
func (s *catalogService) ReleaseSeat(ctx context.Context, programID primitive.ObjectID) (*domain.CoachingProgram, error) {
	if err := s.programRepo.ReleaseSeat(ctx, programID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return s.programRepo.GetByID(ctx, programID)
}
