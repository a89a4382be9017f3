package service

import (
	"context"
	"cricketacademy/coaching-app/internal/domain"
	"cricketacademy/coaching-app/internal/repository"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type catalogFixture struct {
	svc         CatalogService
	programRepo *fakeProgramRepo
	coachRepo   *fakeCoachRepo
	userRepo    *fakeUserRepo
	storage     *fakeFileStorage
	coachID     primitive.ObjectID
	userID      primitive.ObjectID
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	programRepo := newFakeProgramRepo()
	coachRepo := newFakeCoachRepo()
	userRepo := newFakeUserRepo()
	fileStorage := &fakeFileStorage{}

	user := &domain.User{
		FirstName:    "Rahul",
		LastName:     "Sharma",
		Email:        "rahul.sharma@example.com",
		PasswordHash: "x",
		Role:         domain.RoleCoach,
	}
	userID, err := userRepo.Create(context.Background(), user)
	require.NoError(t, err)

	coach := &domain.Coach{
		UserID:          userID,
		Specializations: []string{"batting", "fielding"},
		Experience:      12,
	}
	coachID, err := coachRepo.Create(context.Background(), coach)
	require.NoError(t, err)

	return &catalogFixture{
		svc:         NewCatalogService(programRepo, coachRepo, userRepo, fileStorage, 10, 100),
		programRepo: programRepo,
		coachRepo:   coachRepo,
		userRepo:    userRepo,
		storage:     fileStorage,
		coachID:     coachID,
		userID:      userID,
	}
}

func validCreateInput(coachID primitive.ObjectID) CreateProgramInput {
	return CreateProgramInput{
		Title:           "Front-foot batting fundamentals",
		Description:     "Eight weeks of technique drills for new batters.",
		Category:        domain.CategoryBeginner,
		Specialization:  domain.SpecializationBatting,
		Difficulty:      domain.DifficultyEasy,
		CoachID:         coachID,
		Duration:        domain.Duration{Weeks: 8, SessionsPerWeek: 3},
		MaxParticipants: 20,
		Price:           149.99,
		StartDate:       time.Now().Add(7 * 24 * time.Hour),
		EndDate:         time.Now().Add(63 * 24 * time.Hour),
	}
}

func TestCreateProgram(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	program, err := f.svc.CreateProgram(ctx, validCreateInput(f.coachID))
	require.NoError(t, err)
	require.NotEqual(t, primitive.NilObjectID, program.ID)
	require.Equal(t, 0, program.CurrentEnrollments)
	// totalSessions defaults to weeks x sessionsPerWeek when omitted.
	require.Equal(t, 24, program.TotalSessions)

	coach, err := f.coachRepo.GetByID(ctx, f.coachID)
	require.NoError(t, err)
	require.Contains(t, coach.AssignedPrograms, program.ID)
}

func TestCreateProgramExplicitTotalSessions(t *testing.T) {
	f := newCatalogFixture(t)

	input := validCreateInput(f.coachID)
	total := 30 // stored as given, not forced to weeks x sessionsPerWeek
	input.TotalSessions = &total

	program, err := f.svc.CreateProgram(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, 30, program.TotalSessions)
}

func TestCreateProgramValidation(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateProgramInput)
	}{
		{"missing title", func(in *CreateProgramInput) { in.Title = "" }},
		{"missing description", func(in *CreateProgramInput) { in.Description = "" }},
		{"unknown category", func(in *CreateProgramInput) { in.Category = "expert" }},
		{"unknown specialization", func(in *CreateProgramInput) { in.Specialization = "sledging" }},
		{"unknown difficulty", func(in *CreateProgramInput) { in.Difficulty = "brutal" }},
		{"zero weeks", func(in *CreateProgramInput) { in.Duration.Weeks = 0 }},
		{"zero maxParticipants", func(in *CreateProgramInput) { in.MaxParticipants = 0 }},
		{"negative price", func(in *CreateProgramInput) { in.Price = -1 }},
		{"endDate before startDate", func(in *CreateProgramInput) { in.EndDate = in.StartDate.Add(-time.Hour) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput(f.coachID)
			tc.mutate(&input)
			_, err := f.svc.CreateProgram(ctx, input)
			require.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestCreateProgramUnknownCoach(t *testing.T) {
	f := newCatalogFixture(t)

	input := validCreateInput(primitive.NewObjectID())
	_, err := f.svc.CreateProgram(context.Background(), input)
	require.ErrorIs(t, err, ErrCoachNotFound)
}

func TestListPagination(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		input := validCreateInput(f.coachID)
		input.Title = fmt.Sprintf("Program %02d", i)
		_, err := f.svc.CreateProgram(ctx, input)
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, ListFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Docs, 10)
	require.Equal(t, int64(25), page.TotalCount)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 1, page.CurrentPage)
	// Newest first.
	require.Equal(t, "Program 24", page.Docs[0].Title)

	last, err := f.svc.List(ctx, ListFilter{}, 3, 10)
	require.NoError(t, err)
	require.Len(t, last.Docs, 5)

	// A different page size changes totalPages but never totalCount.
	smaller, err := f.svc.List(ctx, ListFilter{}, 1, 5)
	require.NoError(t, err)
	require.Equal(t, int64(25), smaller.TotalCount)
	require.Equal(t, 5, smaller.TotalPages)
}

func TestListPageSizeClamped(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	svc := NewCatalogService(f.programRepo, f.coachRepo, f.userRepo, f.storage, 10, 20)
	for i := 0; i < 30; i++ {
		_, err := svc.CreateProgram(ctx, validCreateInput(f.coachID))
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListFilter{}, 1, 10000)
	require.NoError(t, err)
	require.Len(t, page.Docs, 20)
	require.Equal(t, int64(30), page.TotalCount)
}

func TestListFilters(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	beginner := validCreateInput(f.coachID)
	_, err := f.svc.CreateProgram(ctx, beginner)
	require.NoError(t, err)

	advanced := validCreateInput(f.coachID)
	advanced.Category = domain.CategoryAdvanced
	advanced.Specialization = domain.SpecializationBowling
	advanced.Difficulty = domain.DifficultyHard
	_, err = f.svc.CreateProgram(ctx, advanced)
	require.NoError(t, err)

	page, err := f.svc.List(ctx, ListFilter{Category: "beginner"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Docs, 1)
	require.Equal(t, domain.CategoryBeginner, page.Docs[0].Category)

	// Filters combine with AND.
	page, err = f.svc.List(ctx, ListFilter{Category: "advanced", Difficulty: "easy"}, 1, 10)
	require.NoError(t, err)
	require.Empty(t, page.Docs)
	require.Equal(t, 0, page.TotalPages)

	// An unrecognized enum value is a predicate nothing matches, not an error.
	page, err = f.svc.List(ctx, ListFilter{Category: "expert"}, 1, 10)
	require.NoError(t, err)
	require.Empty(t, page.Docs)
	require.Equal(t, int64(0), page.TotalCount)

	// Same for a malformed coach ID.
	page, err = f.svc.List(ctx, ListFilter{CoachID: "not-a-hex-id"}, 1, 10)
	require.NoError(t, err)
	require.Empty(t, page.Docs)
}

func TestListByCoach(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListByCoach(ctx, primitive.NewObjectID(), ListFilter{}, 1, 10)
	require.ErrorIs(t, err, ErrCoachNotFound)

	// An existing coach with zero programs yields an empty page, not an error.
	page, err := f.svc.ListByCoach(ctx, f.coachID, ListFilter{}, 1, 10)
	require.NoError(t, err)
	require.Empty(t, page.Docs)

	_, err = f.svc.CreateProgram(ctx, validCreateInput(f.coachID))
	require.NoError(t, err)

	page, err = f.svc.ListByCoach(ctx, f.coachID, ListFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Docs, 1)
}

func TestGetProgramPopulatesCoach(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	program, err := f.svc.CreateProgram(ctx, validCreateInput(f.coachID))
	require.NoError(t, err)

	detail, err := f.svc.GetProgram(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, program.ID, detail.Program.ID)
	require.NotNil(t, detail.Coach)
	require.Equal(t, f.coachID, detail.Coach.ID)
	require.NotNil(t, detail.CoachUser)
	require.Equal(t, "rahul.sharma@example.com", detail.CoachUser.Email)

	_, err = f.svc.GetProgram(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestAddMaterial(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	program, err := f.svc.CreateProgram(ctx, validCreateInput(f.coachID))
	require.NoError(t, err)

	_, err = f.svc.AddMaterial(ctx, program.ID, MaterialInput{Title: "Episode 1", Type: "podcast"})
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.svc.AddMaterial(ctx, program.ID, MaterialInput{Title: "", Type: domain.MaterialTypeVideo})
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.svc.AddMaterial(ctx, primitive.NewObjectID(), MaterialInput{Title: "Intro", Type: domain.MaterialTypeVideo})
	require.ErrorIs(t, err, ErrProgramNotFound)

	updated, err := f.svc.AddMaterial(ctx, program.ID, MaterialInput{Title: "Grip basics", Type: domain.MaterialTypeVideo})
	require.NoError(t, err)
	require.Len(t, updated.Materials, 1)

	// New materials append at the end, preserving display order.
	updated, err = f.svc.AddMaterial(ctx, program.ID, MaterialInput{Title: "Stance checklist", Type: domain.MaterialTypeDocument})
	require.NoError(t, err)
	require.Len(t, updated.Materials, 2)
	require.Equal(t, "Stance checklist", updated.Materials[1].Title)
}

func TestMaterialUploadURL(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	program, err := f.svc.CreateProgram(ctx, validCreateInput(f.coachID))
	require.NoError(t, err)

	uploadURL, objectKey, err := f.svc.MaterialUploadURL(ctx, program.ID, "drills.mp4", "video/mp4")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(objectKey, "materials/"+program.ID.Hex()+"/"))
	require.True(t, strings.HasSuffix(objectKey, ".mp4"))
	require.Equal(t, "https://storage.test/upload/"+objectKey, uploadURL)

	_, _, err = f.svc.MaterialUploadURL(ctx, primitive.NewObjectID(), "drills.mp4", "video/mp4")
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestDeleteProgramMaintainsCoachIndex(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	program, err := f.svc.CreateProgram(ctx, validCreateInput(f.coachID))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteProgram(ctx, program.ID))

	coach, err := f.coachRepo.GetByID(ctx, f.coachID)
	require.NoError(t, err)
	require.NotContains(t, coach.AssignedPrograms, program.ID)

	require.ErrorIs(t, f.svc.DeleteProgram(ctx, program.ID), ErrProgramNotFound)
}

func TestUpdateProgram(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	program, err := f.svc.CreateProgram(ctx, validCreateInput(f.coachID))
	require.NoError(t, err)

	title := "Front-foot batting, revised"
	updated, err := f.svc.UpdateProgram(ctx, program.ID, repository.ProgramUpdate{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)

	badCategory := domain.Category("expert")
	_, err = f.svc.UpdateProgram(ctx, program.ID, repository.ProgramUpdate{Category: &badCategory})
	require.ErrorIs(t, err, ErrValidationFailed)

	earlier := program.StartDate.Add(-time.Hour)
	_, err = f.svc.UpdateProgram(ctx, program.ID, repository.ProgramUpdate{EndDate: &earlier})
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.svc.UpdateProgram(ctx, primitive.NewObjectID(), repository.ProgramUpdate{Title: &title})
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestUpdateMaxParticipantsBelowEnrollments(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	input := validCreateInput(f.coachID)
	input.MaxParticipants = 20
	program, err := f.svc.CreateProgram(ctx, input)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := f.svc.ReserveSeat(ctx, program.ID)
		require.NoError(t, err)
	}

	lower := 5
	_, err = f.svc.UpdateProgram(ctx, program.ID, repository.ProgramUpdate{MaxParticipants: &lower})
	require.ErrorIs(t, err, ErrValidationFailed)

	// The failed update left the program untouched.
	current, err := f.programRepo.GetByID(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, 20, current.MaxParticipants)
	require.Equal(t, 10, current.CurrentEnrollments)

	// Raising the cap is always allowed, as is lowering to the floor.
	higher := 40
	updated, err := f.svc.UpdateProgram(ctx, program.ID, repository.ProgramUpdate{MaxParticipants: &higher})
	require.NoError(t, err)
	require.Equal(t, 40, updated.MaxParticipants)

	floor := 10
	updated, err = f.svc.UpdateProgram(ctx, program.ID, repository.ProgramUpdate{MaxParticipants: &floor})
	require.NoError(t, err)
	require.Equal(t, 10, updated.MaxParticipants)
}

func TestGetStats(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	input := validCreateInput(f.coachID)
	input.MaxParticipants = 20
	program, err := f.svc.CreateProgram(ctx, input)
	require.NoError(t, err)

	for i := 0; i < 15; i++ {
		_, err := f.svc.ReserveSeat(ctx, program.ID)
		require.NoError(t, err)
	}

	stats, err := f.svc.GetStats(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stats.SeatsRemaining)
	require.InDelta(t, 0.75, stats.FillRate, 1e-9)
	require.Equal(t, 24, stats.TotalSessions)
	require.Equal(t, 0, stats.MaterialCount)
	require.Greater(t, stats.DaysRemaining, 0)

	// A finished program has zero days remaining, never a negative count.
	past := time.Now().Add(-48 * time.Hour)
	pastStart := past.Add(-time.Hour * 24 * 30)
	_, err = f.svc.UpdateProgram(ctx, program.ID, repository.ProgramUpdate{StartDate: &pastStart, EndDate: &past})
	require.NoError(t, err)
	stats, err = f.svc.GetStats(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stats.DaysRemaining)

	_, err = f.svc.GetStats(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestReserveSeatUntilFull(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	input := validCreateInput(f.coachID)
	input.MaxParticipants = 2
	program, err := f.svc.CreateProgram(ctx, input)
	require.NoError(t, err)

	first, err := f.svc.ReserveSeat(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.CurrentEnrollments)

	second, err := f.svc.ReserveSeat(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, 2, second.CurrentEnrollments)

	_, err = f.svc.ReserveSeat(ctx, program.ID)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	stats, err := f.svc.GetStats(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stats.SeatsRemaining)

	_, err = f.svc.ReserveSeat(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestReserveSeatConcurrent(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	input := validCreateInput(f.coachID)
	input.MaxParticipants = 1
	program, err := f.svc.CreateProgram(ctx, input)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ReserveSeat(ctx, program.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrCapacityExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Exactly one caller wins the last seat.
	require.Equal(t, 1, succeeded)
	require.Equal(t, callers-1, rejected)

	current, err := f.programRepo.GetByID(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, 1, current.CurrentEnrollments)
}

func TestReleaseSeatFloorsAtZero(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	program, err := f.svc.CreateProgram(ctx, validCreateInput(f.coachID))
	require.NoError(t, err)

	released, err := f.svc.ReleaseSeat(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, 0, released.CurrentEnrollments)

	_, err = f.svc.ReserveSeat(ctx, program.ID)
	require.NoError(t, err)
	released, err = f.svc.ReleaseSeat(ctx, program.ID)
	require.NoError(t, err)
	require.Equal(t, 0, released.CurrentEnrollments)

	_, err = f.svc.ReleaseSeat(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestSeatCounterInvariantUnderRandomOps(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	input := validCreateInput(f.coachID)
	input.MaxParticipants = 5
	program, err := f.svc.CreateProgram(ctx, input)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		if rng.Intn(2) == 0 {
			_, err := f.svc.ReserveSeat(ctx, program.ID)
			if err != nil {
				require.ErrorIs(t, err, ErrCapacityExceeded)
			}
		} else {
			_, err := f.svc.ReleaseSeat(ctx, program.ID)
			require.NoError(t, err)
		}

		current, err := f.programRepo.GetByID(ctx, program.ID)
		require.NoError(t, err)
		require.GreaterOrEqual(t, current.CurrentEnrollments, 0)
		require.LessOrEqual(t, current.CurrentEnrollments, current.MaxParticipants)
	}
}
