package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dkeye/clique/internal/app/orch"
	"github.com/dkeye/clique/internal/domain"
	"github.com/dkeye/clique/internal/roster"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type RoomsHandler struct {
	Orch  *orch.Orchestrator
	Store roster.Store
}

type leaveRequest struct {
	RoomCode string `json:"roomCode" binding:"required"`
	GuestID  string `json:"guestId" binding:"required"`
}

func (h *RoomsHandler) List(c *gin.Context) {
	rooms := h.Orch.Rooms.List()
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *RoomsHandler) Get(c *gin.Context) {
	room, ok := h.Orch.Rooms.Get(domain.RoomID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, room.Snapshot())
}

// Leave is the disconnect hook of the room CRUD service. It always
// succeeds for a well-formed body, whether or not the member was present.
func (h *RoomsHandler) Leave(c *gin.Context) {
	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	n := h.Orch.LeaveMember(domain.RoomID(req.RoomCode), domain.UserID(req.GuestID))
	log.Info().Str("module", "adapters.http").Str("room", req.RoomCode).Str("user", req.GuestID).Int("sessions", n).Msg("leave via api")
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func (h *RoomsHandler) Evict(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	if !h.Orch.EvictRoom(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomsHandler) Health(c *gin.Context) {
	status := "ok"
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("roster ping failed")
			status = "unavailable"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"rooms":       h.Orch.Rooms.Len(),
		"connections": h.Orch.Registry.Len(),
		"roster":      status,
	})
}
