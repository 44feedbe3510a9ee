package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"railway-backend/controllers"
	"railway-backend/middleware"
)

// SetupRouter wires controllers into the gin engine.
func SetupRouter(
	tc *controllers.TicketController,
	trc *controllers.TrainController,
	ac *controllers.AuthController,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	allowCredentials := true
	for _, origin := range corsOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		tickets := api.Group("/tickets")
		{
			tickets.GET("/available", tc.GetAvailableTickets)
			tickets.GET("/booked", tc.GetBookedTickets)
			tickets.POST("/book", tc.BookTicket)
			tickets.PATCH("/cancel/:ticket_id", tc.CancelTicket)
		}

		trains := api.Group("/trains")
		{
			trains.GET("", trc.GetTrains)
			trains.GET("/:id", trc.GetTrain)
			trains.POST("", trc.CreateTrain)
			trains.DELETE("/:id", trc.DeleteTrain)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/login", ac.Login)
		}
	}

	return r
}
