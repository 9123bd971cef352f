package api

import (
	"log"
	stdhttp "net/http"

	intconfig "laganbus/internal/config"
	h "laganbus/internal/http/handlers"
	"laganbus/internal/http/middleware"
	"laganbus/internal/repositories"
	"laganbus/internal/services"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	remote := repositories.SheetStore{BaseURL: env.SheetAPIURL}
	store := services.NewReconciliationStore()
	pricing := services.Pricing{Services: intconfig.DefaultBusServices()}

	h.Configure(h.Deps{
		Env:      env,
		Bookings: services.NewBookingService(remote, store, pricing),
		Messaging: services.Messaging{
			AdminWhatsApp: env.AdminWhatsApp,
			BankName:      env.BankName,
		},
		Operators: repositories.OperatorRepository{},
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/services", h.GetBusServices)

		// Customer surface
		bookings := api.Group("/bookings")
		bookings.POST("", h.SubmitBooking)
		bookings.GET("/status", h.CheckBookingStatus)
		bookings.GET("/status/ticket", h.GetStatusTicketPDF)

		// Auth (two-step: password then PIN)
		auth := api.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/verify-pin", h.VerifyPIN)

		// Operator surface
		admin := api.Group("/admin")
		admin.Use(middleware.RequireOperator([]byte(env.JWTSecret)))
		admin.GET("/bookings", h.ListBookings)
		admin.POST("/bookings", h.AddBooking)
		admin.POST("/bookings/refresh", h.RefreshBookings)
		admin.POST("/bookings/:id/approve", h.ApproveBooking)
		admin.PUT("/bookings/:id", h.UpdateBooking)
		admin.DELETE("/bookings/:id", h.DeleteBooking)
		admin.GET("/bookings/:id/ticket", h.GetBookingTicketPDF)
		admin.GET("/bookings/:id/messages", h.GetBookingMessages)
		admin.DELETE("/archive", h.ClearArchive)
		admin.GET("/stats", h.GetStats)
		admin.POST("/operators", h.CreateOperator)
	}

	return r
}
