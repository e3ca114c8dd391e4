package routes

import (
	"log"
	"net/http"

	"casicasi/handlers"
	"casicasi/middleware"
	"casicasi/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the room code is the access token, not the origin
	},
}

func SetupRoutes(
	router *gin.Engine,
	hub *services.Hub,
	roomHandler *handlers.RoomHandler,
	adminHandler *handlers.AdminHandler,
	authService *services.AuthService,
) {
	api := router.Group("/api")
	{
		rooms := api.Group("/rooms")
		{
			rooms.GET("/:code", roomHandler.GetRoom)
			rooms.GET("/:code/qr", roomHandler.GetRoomQR)
		}

		// Question-bank admin, present only when a database is configured.
		if adminHandler != nil {
			admin := api.Group("/admin")
			{
				admin.POST("/login", adminHandler.Login)

				protected := admin.Group("/")
				protected.Use(middleware.AdminAuth(authService))
				{
					protected.GET("/questions", adminHandler.ListQuestions)
					protected.POST("/questions", adminHandler.CreateQuestion)
					protected.PUT("/questions/:id", adminHandler.UpdateQuestion)
					protected.DELETE("/questions/:id", adminHandler.DeleteQuestion)
					protected.GET("/questions/export", adminHandler.ExportQuestions)
					protected.POST("/reload", adminHandler.ReloadBank)
				}
			}
		}
	}

	// The bidirectional game channel. Everything that mutates a room
	// arrives here.
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}
		hub.RegisterClient(conn)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
