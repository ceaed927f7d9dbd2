package api

import (
	"github.com/gin-gonic/gin"

	"github.com/wisetreee/safe-haven/internal/api/handlers"
	"github.com/wisetreee/safe-haven/internal/api/middleware"
	"github.com/wisetreee/safe-haven/internal/config"
	"github.com/wisetreee/safe-haven/internal/services"
	"github.com/wisetreee/safe-haven/internal/session"
	"github.com/wisetreee/safe-haven/internal/storage"
	"github.com/wisetreee/safe-haven/internal/store"
)

// SetupRouter configures and returns the main Gin engine.
// s3 and taskClient may be nil (demo mode); the staff photo endpoints are not
// registered without them.
func SetupRouter(
	cfg *config.Config,
	st store.Storage,
	sessions session.Manager,
	s3 storage.IS3Storage,
	taskClient handlers.IAsynqClient,
) *gin.Engine {
	accountService := services.NewAccountService(st)
	housingService := services.NewHousingService(st)
	bookingService := services.NewBookingService(st, accountService, cfg.BookingNumberMaxRetries)
	messageService := services.NewMessageService(st)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Global middleware, order matters: CORS first, then rate limiting, then
	// session resolution.
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())
	r.Use(middleware.SessionMiddleware(cfg.SessionCookieName, sessions, st))

	authHandler := handlers.NewAuthHandler(cfg, accountService, sessions)
	housingHandler := handlers.NewHousingHandler(housingService, s3, taskClient)
	bookingHandler := handlers.NewBookingHandler(bookingService, accountService, taskClient)
	messageHandler := handlers.NewMessageHandler(messageService)

	apiGroup := r.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/current-user", authHandler.CurrentUser)
		}

		apiGroup.GET("/housings", housingHandler.List)
		apiGroup.GET("/housings/:id", housingHandler.Get)

		bookings := apiGroup.Group("/bookings")
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", middleware.RequireAuth(), bookingHandler.List)
			bookings.GET("/check", bookingHandler.Check)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
			bookings.POST("/:id/confirm", middleware.RequireStaff(), bookingHandler.Confirm)
			bookings.POST("/:id/reject", middleware.RequireStaff(), bookingHandler.Reject)
			bookings.GET("/:id/messages", messageHandler.List)
			bookings.POST("/:id/messages", messageHandler.Send)
		}

		staff := apiGroup.Group("/staff", middleware.RequireStaff())
		{
			staff.GET("/bookings", bookingHandler.ListAll)
			staff.PATCH("/housings/:id/availability", housingHandler.SetAvailability)
			if s3 != nil && taskClient != nil {
				staff.POST("/housings/:id/photos", housingHandler.PhotoUploadURL)
				staff.POST("/housings/:id/photos/attach", housingHandler.PhotoAttach)
			}
		}
	}

	return r
}
