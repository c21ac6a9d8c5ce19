package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/app/orch"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/protocol"
)

const sessionUserKey = "username"

type restHandlers struct {
	orch *orch.Orchestrator
}

func (h *restHandlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms.List()})
}

func (h *restHandlers) getRoom(c *gin.Context) {
	room, ok := h.orch.Rooms.Snapshot(domain.RoomID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, protocol.Fail(domain.ErrRoomNotFound))
		return
	}
	room.ChatHistory = nil
	c.JSON(http.StatusOK, room)
}

func (h *restHandlers) signup(c *gin.Context) {
	h.authenticate(c, h.orch.Signup, http.StatusCreated)
}

func (h *restHandlers) login(c *gin.Context) {
	h.authenticate(c, h.orch.Login, http.StatusOK)
}

func (h *restHandlers) authenticate(c *gin.Context, op func(protocol.AuthRequest) protocol.Ack, okStatus int) {
	var req protocol.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, protocol.Ack{Error: "bad_payload", Message: "Malformed request."})
		return
	}
	ack := op(req)
	if !ack.Success {
		c.JSON(statusFor(ack.Error), ack)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, ack.User.Name)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		c.JSON(http.StatusInternalServerError, protocol.Ack{Error: "Internal", Message: "Could not save session."})
		return
	}
	c.JSON(okStatus, ack)
}

func (h *restHandlers) me(c *gin.Context) {
	session := sessions.Default(c)
	name, ok := session.Get(sessionUserKey).(string)
	if !ok || name == "" {
		c.JSON(http.StatusUnauthorized, protocol.Ack{Error: "Unauthorized", Message: "Not logged in."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": gin.H{"name": name}})
}

func statusFor(reason string) int {
	switch reason {
	case "UserNotFound", "RoomNotFound":
		return http.StatusNotFound
	case "IncorrectPassword", "BadPassword":
		return http.StatusUnauthorized
	case "UsernameTaken", "RoomAlreadyExists":
		return http.StatusConflict
	case "InvalidUsername", "InvalidRoomID":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
