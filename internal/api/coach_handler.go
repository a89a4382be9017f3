package api

import (
	"cricketacademy/coaching-app/internal/domain"
	"cricketacademy/coaching-app/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachHandler holds the coach service dependency.
type CoachHandler struct {
	coachService service.CoachService
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

// --- DTOs ---

type AvailabilitySlotRequest struct {
	Day       string `json:"day" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

type CreateCoachRequest struct {
	UserID          string                    `json:"userId" binding:"required"`
	Specializations []string                  `json:"specializations"`
	Experience      int                       `json:"experience" binding:"gte=0"`
	Availability    []AvailabilitySlotRequest `json:"availability"`
}

type ReplaceAvailabilityRequest struct {
	Availability []AvailabilitySlotRequest `json:"availability" binding:"required"`
}

// CoachResponse is the DTO for returning a coach profile.
type CoachResponse struct {
	ID               string                    `json:"id"`
	UserID           string                    `json:"userId"`
	Specializations  []string                  `json:"specializations,omitempty"`
	Experience       int                       `json:"experience"`
	AssignedPrograms []string                  `json:"assignedPrograms,omitempty"`
	Availability     []domain.AvailabilitySlot `json:"availability,omitempty"`
	AssignedSessions int                       `json:"assignedSessions"`
	User             *UserResponse             `json:"user,omitempty"`
	CreatedAt        time.Time                 `json:"createdAt"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
}

// MapCoachToResponse converts a domain.Coach to CoachResponse DTO.
func MapCoachToResponse(coach *domain.Coach, user *domain.User) CoachResponse {
	if coach == nil {
		return CoachResponse{}
	}
	resp := CoachResponse{
		ID:               coach.ID.Hex(),
		UserID:           coach.UserID.Hex(),
		Specializations:  coach.Specializations,
		Experience:       coach.Experience,
		Availability:     coach.Availability,
		AssignedSessions: coach.AssignedSessions,
		CreatedAt:        coach.CreatedAt,
		UpdatedAt:        coach.UpdatedAt,
	}
	if len(coach.AssignedPrograms) > 0 {
		resp.AssignedPrograms = make([]string, len(coach.AssignedPrograms))
		for i, id := range coach.AssignedPrograms {
			resp.AssignedPrograms[i] = id.Hex()
		}
	}
	if user != nil {
		mapped := MapUserToResponse(user)
		resp.User = &mapped
	}
	return resp
}

func slotsFromRequest(slots []AvailabilitySlotRequest) []domain.AvailabilitySlot {
	converted := make([]domain.AvailabilitySlot, len(slots))
	for i, slot := range slots {
		converted[i] = domain.AvailabilitySlot{
			Day:       slot.Day,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		}
	}
	return converted
}

func translateCoachError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrCoachNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCoachAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// --- Handler Methods ---

// CreateCoach godoc
// @Summary Create a coach profile for an existing user
// @Tags Coaches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param coach body CreateCoachRequest true "Coach profile details"
// @Success 201 {object} CoachResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 404 {object} gin.H "User not found"
// @Failure 409 {object} gin.H "Profile already exists"
// @Router /coaches [post]
func (h *CoachHandler) CreateCoach(c *gin.Context) {
	var req CreateCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	coach, err := h.coachService.CreateCoach(c.Request.Context(), userID, req.Specializations, req.Experience, slotsFromRequest(req.Availability))
	if err != nil {
		translateCoachError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, MapCoachToResponse(coach, nil))
}

// GetCoach godoc
// @Summary Get a coach profile
// @Tags Coaches
// @Produce json
// @Param id path string true "Coach ID"
// @Success 200 {object} CoachResponse
// @Failure 404 {object} gin.H "Coach not found"
// @Router /coaches/{id} [get]
func (h *CoachHandler) GetCoach(c *gin.Context) {
	coachID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Coach not found")
		return
	}

	detail, err := h.coachService.GetCoach(c.Request.Context(), coachID)
	if err != nil {
		translateCoachError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, MapCoachToResponse(&detail.Coach, detail.User))
}

// ReplaceAvailability godoc
// @Summary Replace a coach's weekly availability
// @Tags Coaches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Coach ID"
// @Param availability body ReplaceAvailabilityRequest true "New availability slots"
// @Success 200 {object} CoachResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 404 {object} gin.H "Coach not found"
// @Router /coaches/{id}/availability [put]
func (h *CoachHandler) ReplaceAvailability(c *gin.Context) {
	coachID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Coach not found")
		return
	}

	var req ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coach, err := h.coachService.ReplaceAvailability(c.Request.Context(), coachID, slotsFromRequest(req.Availability))
	if err != nil {
		translateCoachError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, MapCoachToResponse(coach, nil))
}
