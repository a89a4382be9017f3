package api

import (
	"cricketacademy/coaching-app/internal/domain"
	"cricketacademy/coaching-app/internal/repository"
	"cricketacademy/coaching-app/internal/service"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramHandler holds the catalog service dependency.
type ProgramHandler struct {
	catalogService service.CatalogService
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(catalogService service.CatalogService) *ProgramHandler {
	return &ProgramHandler{catalogService: catalogService}
}

// --- DTOs for API (Data Transfer Objects) ---

// DurationRequest mirrors the embedded duration document.
type DurationRequest struct {
	Weeks           int `json:"weeks" binding:"required,gt=0"`
	SessionsPerWeek int `json:"sessionsPerWeek" binding:"required,gt=0"`
}

// CreateProgramRequest defines the expected JSON for creating a program.
type CreateProgramRequest struct {
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description" binding:"required"`
	Category        string          `json:"category" binding:"required"`
	Specialization  string          `json:"specialization" binding:"required"`
	Difficulty      string          `json:"difficulty" binding:"required"`
	CoachID         string          `json:"coachId" binding:"required"`
	Duration        DurationRequest `json:"duration" binding:"required"`
	TotalSessions   *int            `json:"totalSessions" binding:"omitempty,gte=0"`
	MaxParticipants int             `json:"maxParticipants" binding:"required,gt=0"`
	Price           float64         `json:"price" binding:"gte=0"`
	StartDate       time.Time       `json:"startDate" binding:"required"`
	EndDate         time.Time       `json:"endDate" binding:"required"`
	Benefits        []string        `json:"benefits"`
	Requirements    []string        `json:"requirements"`
}

// UpdateProgramRequest carries a partial update; absent fields stay as they
// are. The coach reference is intentionally not updatable.
type UpdateProgramRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Category        *string    `json:"category"`
	Specialization  *string    `json:"specialization"`
	Difficulty      *string    `json:"difficulty"`
	Duration        *struct {
		Weeks           int `json:"weeks"`
		SessionsPerWeek int `json:"sessionsPerWeek"`
	} `json:"duration"`
	TotalSessions   *int       `json:"totalSessions"`
	MaxParticipants *int       `json:"maxParticipants"`
	Price           *float64   `json:"price"`
	StartDate       *time.Time `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	Benefits        []string   `json:"benefits"`
	Requirements    []string   `json:"requirements"`
}

// AddMaterialRequest defines the expected JSON for attaching a material.
type AddMaterialRequest struct {
	Title       string `json:"title" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Description string `json:"description"`
	URL         string `json:"url" binding:"omitempty,url"`
}

// MaterialUploadURLRequest asks for a presigned PUT URL for a material file.
type MaterialUploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type MaterialUploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// MaterialResponse is the DTO for a single material record.
type MaterialResponse struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ProgramResponse is the DTO for returning program details.
type ProgramResponse struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Category           string             `json:"category"`
	Specialization     string             `json:"specialization"`
	Difficulty         string             `json:"difficulty"`
	CoachID            string             `json:"coachId"`
	Duration           domain.Duration    `json:"duration"`
	TotalSessions      int                `json:"totalSessions"`
	MaxParticipants    int                `json:"maxParticipants"`
	CurrentEnrollments int                `json:"currentEnrollments"`
	Price              float64            `json:"price"`
	StartDate          time.Time          `json:"startDate"`
	EndDate            time.Time          `json:"endDate"`
	Benefits           []string           `json:"benefits,omitempty"`
	Requirements       []string           `json:"requirements,omitempty"`
	Materials          []MaterialResponse `json:"materials,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// CoachSummaryResponse is the coach block embedded in a program detail.
type CoachSummaryResponse struct {
	ID              string        `json:"id"`
	Specializations []string      `json:"specializations,omitempty"`
	Experience      int           `json:"experience"`
	User            *UserResponse `json:"user,omitempty"`
}

// ProgramDetailResponse is a program with its coach populated.
type ProgramDetailResponse struct {
	ProgramResponse
	Coach *CoachSummaryResponse `json:"coach,omitempty"`
}

// ProgramPageResponse is one page of catalog results; field names follow the
// paginated envelope the frontend consumes.
type ProgramPageResponse struct {
	Docs        []ProgramResponse `json:"docs"`
	TotalCount  int64             `json:"totalCount"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
}

// ProgramStatsResponse carries the derived per-program metrics.
type ProgramStatsResponse struct {
	SeatsRemaining int     `json:"seatsRemaining"`
	FillRate       float64 `json:"fillRate"`
	TotalSessions  int     `json:"totalSessions"`
	MaterialCount  int     `json:"materialCount"`
	DaysRemaining  int     `json:"daysRemaining"`
}

// MapProgramToResponse converts a domain.CoachingProgram to its DTO.
func MapProgramToResponse(p *domain.CoachingProgram) ProgramResponse {
	if p == nil {
		return ProgramResponse{}
	}
	materials := make([]MaterialResponse, len(p.Materials))
	for i, m := range p.Materials {
		materials[i] = MaterialResponse{
			Title:       m.Title,
			Type:        string(m.Type),
			Description: m.Description,
			URL:         m.URL,
		}
	}
	if len(materials) == 0 {
		materials = nil
	}
	return ProgramResponse{
		ID:                 p.ID.Hex(),
		Title:              p.Title,
		Description:        p.Description,
		Category:           string(p.Category),
		Specialization:     string(p.Specialization),
		Difficulty:         string(p.Difficulty),
		CoachID:            p.CoachID.Hex(),
		Duration:           p.Duration,
		TotalSessions:      p.TotalSessions,
		MaxParticipants:    p.MaxParticipants,
		CurrentEnrollments: p.CurrentEnrollments,
		Price:              p.Price,
		StartDate:          p.StartDate,
		EndDate:            p.EndDate,
		Benefits:           p.Benefits,
		Requirements:       p.Requirements,
		Materials:          materials,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func mapPageToResponse(page *service.ProgramPage) ProgramPageResponse {
	docs := make([]ProgramResponse, len(page.Docs))
	for i, p := range page.Docs {
		docs[i] = MapProgramToResponse(&p)
	}
	return ProgramPageResponse{
		Docs:        docs,
		TotalCount:  page.TotalCount,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	}
}

// translateCatalogError maps service failures onto HTTP statuses without
// collapsing the error kinds into each other.
func translateCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProgramNotFound), errors.Is(err, service.ErrCoachNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCapacityExceeded):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, "Store temporarily unavailable, please retry")
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func listFilterFromQuery(c *gin.Context) service.ListFilter {
	return service.ListFilter{
		Category:       c.Query("category"),
		Specialization: c.Query("specialization"),
		Difficulty:     c.Query("difficulty"),
		CoachID:        c.Query("coachId"),
	}
}

func pagingFromQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	return page, pageSize
}

// --- Handler Methods ---

// ListPrograms godoc
// @Summary List coaching programs
// @Description Returns a page of programs matching the supplied filters.
// @Tags Programs
// @Produce json
// @Param category query string false "Category filter"
// @Param specialization query string false "Specialization filter"
// @Param difficulty query string false "Difficulty filter"
// @Param coachId query string false "Coach ID filter"
// @Param page query int false "Page number (1-indexed)"
// @Param limit query int false "Page size"
// @Success 200 {object} ProgramPageResponse
// @Failure 503 {object} gin.H "Store unavailable"
// @Router /programs [get]
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	page, pageSize := pagingFromQuery(c)

	result, err := h.catalogService.List(c.Request.Context(), listFilterFromQuery(c), page, pageSize)
	if err != nil {
		translateCatalogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, mapPageToResponse(result))
}

// GetProgram godoc
// @Summary Get a coaching program
// @Description Returns one program with its coach profile populated.
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} ProgramDetailResponse
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{id} [get]
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		// Malformed IDs can never resolve, so they read as not found.
		abortWithError(c, http.StatusNotFound, "Program not found")
		return
	}

	detail, err := h.catalogService.GetProgram(c.Request.Context(), programID)
	if err != nil {
		translateCatalogError(c, err)
		return
	}

	resp := ProgramDetailResponse{ProgramResponse: MapProgramToResponse(&detail.Program)}
	if detail.Coach != nil {
		coach := &CoachSummaryResponse{
			ID:              detail.Coach.ID.Hex(),
			Specializations: detail.Coach.Specializations,
			Experience:      detail.Coach.Experience,
		}
		if detail.CoachUser != nil {
			user := MapUserToResponse(detail.CoachUser)
			coach.User = &user
		}
		resp.Coach = coach
	}
	respondSuccess(c, http.StatusOK, resp)
}

// ListProgramsByCoach godoc
// @Summary List programs offered by one coach
// @Tags Programs
// @Produce json
// @Param coachId path string true "Coach ID"
// @Success 200 {object} ProgramPageResponse
// @Failure 404 {object} gin.H "Coach not found"
// @Router /programs/coach/{coachId} [get]
func (h *ProgramHandler) ListProgramsByCoach(c *gin.Context) {
	coachID, err := primitive.ObjectIDFromHex(c.Param("coachId"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Coach not found")
		return
	}

	page, pageSize := pagingFromQuery(c)
	filter := listFilterFromQuery(c)
	filter.CoachID = "" // path param wins over any query value

	result, err := h.catalogService.ListByCoach(c.Request.Context(), coachID, filter, page, pageSize)
	if err != nil {
		translateCatalogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, mapPageToResponse(result))
}

// CreateProgram godoc
// @Summary Create a coaching program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param program body CreateProgramRequest true "Program details"
// @Success 201 {object} ProgramResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not a coach or admin)"
// @Router /programs [post]
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachID, err := primitive.ObjectIDFromHex(req.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach ID format")
		return
	}

	program, err := h.catalogService.CreateProgram(c.Request.Context(), service.CreateProgramInput{
		Title:           req.Title,
		Description:     req.Description,
		Category:        domain.Category(req.Category),
		Specialization:  domain.Specialization(req.Specialization),
		Difficulty:      domain.Difficulty(req.Difficulty),
		CoachID:         coachID,
		Duration:        domain.Duration{Weeks: req.Duration.Weeks, SessionsPerWeek: req.Duration.SessionsPerWeek},
		TotalSessions:   req.TotalSessions,
		MaxParticipants: req.MaxParticipants,
		Price:           req.Price,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Benefits:        req.Benefits,
		Requirements:    req.Requirements,
	})
	if err != nil {
		translateCatalogError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, MapProgramToResponse(program))
}

// UpdateProgram godoc
// @Summary Update a coaching program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param program body UpdateProgramRequest true "Fields to update"
// @Success 200 {object} ProgramResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{id} [put]
func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Program not found")
		return
	}

	var req UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	update := repository.ProgramUpdate{
		Title:           req.Title,
		Description:     req.Description,
		TotalSessions:   req.TotalSessions,
		MaxParticipants: req.MaxParticipants,
		Price:           req.Price,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Benefits:        req.Benefits,
		Requirements:    req.Requirements,
	}
	if req.Category != nil {
		category := domain.Category(*req.Category)
		update.Category = &category
	}
	if req.Specialization != nil {
		specialization := domain.Specialization(*req.Specialization)
		update.Specialization = &specialization
	}
	if req.Difficulty != nil {
		difficulty := domain.Difficulty(*req.Difficulty)
		update.Difficulty = &difficulty
	}
	if req.Duration != nil {
		duration := domain.Duration{Weeks: req.Duration.Weeks, SessionsPerWeek: req.Duration.SessionsPerWeek}
		update.Duration = &duration
	}

	program, err := h.catalogService.UpdateProgram(c.Request.Context(), programID, update)
	if err != nil {
		translateCatalogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, MapProgramToResponse(program))
}

// DeleteProgram godoc
// @Summary Delete a coaching program
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} gin.H "Deletion confirmation"
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{id} [delete]
func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Program not found")
		return
	}

	if err := h.catalogService.DeleteProgram(c.Request.Context(), programID); err != nil {
		translateCatalogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"deleted": true, "id": programID.Hex()})
}

// AddMaterial godoc
// @Summary Attach a material to a program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param material body AddMaterialRequest true "Material metadata"
// @Success 200 {object} ProgramResponse "Updated program"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{id}/materials [post]
func (h *ProgramHandler) AddMaterial(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Program not found")
		return
	}

	var req AddMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	program, err := h.catalogService.AddMaterial(c.Request.Context(), programID, service.MaterialInput{
		Title:       req.Title,
		Type:        domain.MaterialType(req.Type),
		Description: req.Description,
		URL:         req.URL,
	})
	if err != nil {
		translateCatalogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, MapProgramToResponse(program))
}

// MaterialUploadURL godoc
// @Summary Get a presigned upload URL for a material file
// @Description The file goes directly to object storage; only the resulting
// @Description key is later stored as material metadata.
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param request body MaterialUploadURLRequest true "Upload details"
// @Success 200 {object} MaterialUploadURLResponse
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{id}/materials/upload-url [post]
func (h *ProgramHandler) MaterialUploadURL(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Program not found")
		return
	}

	var req MaterialUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	uploadURL, objectKey, err := h.catalogService.MaterialUploadURL(c.Request.Context(), programID, req.Filename, req.ContentType)
	if err != nil {
		translateCatalogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, MaterialUploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// GetProgramStats godoc
// @Summary Get derived statistics for a program
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} ProgramStatsResponse
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{id}/stats [get]
func (h *ProgramHandler) GetProgramStats(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Program not found")
		return
	}

	stats, err := h.catalogService.GetStats(c.Request.Context(), programID)
	if err != nil {
		translateCatalogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, ProgramStatsResponse{
		SeatsRemaining: stats.SeatsRemaining,
		FillRate:       stats.FillRate,
		TotalSessions:  stats.TotalSessions,
		MaterialCount:  stats.MaterialCount,
		DaysRemaining:  stats.DaysRemaining,
	})
}

// ReserveSeat godoc
// @Summary Reserve one enrollment seat
// @Description Atomically claims a seat; a full program yields 409.
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} ProgramResponse "Program after the reservation"
// @Failure 404 {object} gin.H "Program not found"
// @Failure 409 {object} gin.H "Program is full"
// @Router /programs/{id}/reserve [post]
func (h *ProgramHandler) ReserveSeat(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Program not found")
		return
	}

	program, err := h.catalogService.ReserveSeat(c.Request.Context(), programID)
	if err != nil {
		translateCatalogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, MapProgramToResponse(program))
}

// ReleaseSeat godoc
// @Summary Release one enrollment seat
// @Description Inverse of reserve, used on enrollment cancellation. Floors at zero.
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} ProgramResponse "Program after the release"
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{id}/release [post]
func (h *ProgramHandler) ReleaseSeat(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Program not found")
		return
	}

	program, err := h.catalogService.ReleaseSeat(c.Request.Context(), programID)
	if err != nil {
		translateCatalogError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, MapProgramToResponse(program))
}
