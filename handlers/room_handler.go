package handlers

import (
	"fmt"
	"net/http"

	"casicasi/services"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// RoomHandler serves the read-only REST surface around rooms: the join
// screen peeks at a room before connecting, and hosts hand out a QR code
// pointing at the join URL. All mutation happens over the websocket.
type RoomHandler struct {
	registry  *services.Registry
	publicURL string
}

func NewRoomHandler(registry *services.Registry, publicURL string) *RoomHandler {
	return &RoomHandler{registry: registry, publicURL: publicURL}
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	code := c.Param("code")
	room, ok := h.registry.Describe(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    room.Code,
		"status":  room.Status,
		"host":    room.Host,
		"players": room.Players,
		"config":  room.Config,
	})
}

func (h *RoomHandler) GetRoomQR(c *gin.Context) {
	code := c.Param("code")
	if _, ok := h.registry.Describe(code); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	joinURL := fmt.Sprintf("%s/join/%s", h.publicURL, code)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
