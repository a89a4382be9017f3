package api

import (
	"cricketacademy/coaching-app/internal/domain" // Needed for RoleMiddleware
	"cricketacademy/coaching-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	catalogService service.CatalogService,
	coachService service.CoachService,
) {

	authHandler := NewAuthHandler(authService)
	programHandler := NewProgramHandler(catalogService)
	coachHandler := NewCoachHandler(coachService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// --- Public catalog routes ---
		// Discovery and inspection need no authentication.
		programGroup := apiV1.Group("/programs")
		{
			programGroup.GET("", programHandler.ListPrograms)
			programGroup.GET("/:id", programHandler.GetProgram)
			programGroup.GET("/coach/:coachId", programHandler.ListProgramsByCoach)
			programGroup.GET("/:id/stats", programHandler.GetProgramStats)
		}

		apiV1.GET("/coaches/:id", coachHandler.GetCoach)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Program write routes ---
		// Authoring is limited to coaches and admins; the middleware supplies
		// the authorization decision, the handlers never look at session state.
		programWrites := protected.Group("/programs")
		programWrites.Use(RoleMiddleware(domain.RoleCoach, domain.RoleAdmin))
		{
			programWrites.POST("", programHandler.CreateProgram)
			programWrites.PUT("/:id", programHandler.UpdateProgram)
			programWrites.DELETE("/:id", programHandler.DeleteProgram)
			programWrites.POST("/:id/materials", programHandler.AddMaterial)
			programWrites.POST("/:id/materials/upload-url", programHandler.MaterialUploadURL)
			// Release is the cancellation primitive for the enrollment flow.
			programWrites.POST("/:id/release", programHandler.ReleaseSeat)
		}

		// Any authenticated user may claim a seat; the enrollment/payment flow
		// built on top of this is a separate system.
		protected.POST("/programs/:id/reserve", programHandler.ReserveSeat)

		// --- Coach profile management ---
		protected.POST("/coaches", RoleMiddleware(domain.RoleAdmin), coachHandler.CreateCoach)
		protected.PUT("/coaches/:id/availability", RoleMiddleware(domain.RoleCoach, domain.RoleAdmin), coachHandler.ReplaceAvailability)
	}
}
