package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"casicasi/models"
	"casicasi/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoomRouter(t *testing.T) (*gin.Engine, *services.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := services.NewRegistry(nil)
	h := NewRoomHandler(reg, "http://example.test")

	router := gin.New()
	router.GET("/api/rooms/:code", h.GetRoom)
	router.GET("/api/rooms/:code/qr", h.GetRoomQR)
	return router, reg
}

func TestGetRoom(t *testing.T) {
	router, reg := newRoomRouter(t)
	room := reg.Create(&models.Player{ID: "p1", Name: "Ana"})

	t.Run("unknown code", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/rooms/ZZZZZ", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("existing room", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+room.Code, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Code    string            `json:"code"`
			Status  string            `json:"status"`
			Host    string            `json:"host"`
			Players int               `json:"players"`
			Config  models.GameConfig `json:"config"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, room.Code, body.Code)
		assert.Equal(t, "waiting", body.Status)
		assert.Equal(t, "Ana", body.Host)
		assert.Equal(t, 1, body.Players)
		assert.Equal(t, models.ModeClassic, body.Config.Mode)
	})
}

func TestGetRoomQR(t *testing.T) {
	router, reg := newRoomRouter(t)
	room := reg.Create(&models.Player{ID: "p1", Name: "Ana"})

	t.Run("unknown code", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/rooms/ZZZZZ/qr", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("renders a png", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+room.Code+"/qr", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		// PNG signature.
		require.Greater(t, w.Body.Len(), 8)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, w.Body.Bytes()[:4])
	})
}
