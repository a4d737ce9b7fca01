package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/unibook/internal/container"
	"github.com/joshua-takyi/unibook/internal/handlers"
	"github.com/joshua-takyi/unibook/internal/helpers"
	"github.com/joshua-takyi/unibook/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	secureCookies := cfg.IsProduction()

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "unibook-api",
			})
		})

		v1.GET("/facilities", handlers.ListFacilities(container.FacilityService))
		v1.GET("/facilities/:id", handlers.GetFacility(container.FacilityService))
		v1.GET("/facilities/:id/availability", handlers.FacilityAvailability(container.BookingService))
		v1.GET("/bookings", handlers.ListPublicBookings(container.BookingService))

		v1.POST("/signup", handlers.Signup(container.UserService))
		v1.POST("/login", handlers.Login(container.UserService, secureCookies))
		v1.POST("/logout", handlers.Logout(secureCookies))
		if cfg.EnableDemoSeed {
			v1.POST("/init-demo", handlers.InitDemo(container.UserService))
		}
	}

	var refresher middleware.TokenRefresher
	if container.UserService.Enabled() {
		refresher = container.UserService
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.Identity, refresher, secureCookies, container.Logger))
	{
		protected.GET("/profile", handlers.Profile())
		protected.POST("/bookings", handlers.CreateBooking(container.BookingService))
		protected.GET("/user-bookings", handlers.ListUserBookings(container.BookingService))
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(helpers.RoleAdmin))
	{
		admin.GET("/bookings", handlers.ListAllBookings(container.BookingService))
		admin.PATCH("/bookings/:id", handlers.UpdateBookingStatus(container.BookingService))
	}

	return r
}
