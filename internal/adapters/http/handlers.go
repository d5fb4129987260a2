package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/classroom/internal/app/orch"
	"github.com/dkeye/classroom/internal/auth"
	"github.com/dkeye/classroom/internal/domain"
)

type handlers struct {
	orch *orch.Orchestrator
}

type PushRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type PushResponse struct {
	Delivered int `json:"delivered"`
}

type RosterResponse struct {
	ClassID      string               `json:"classId"`
	SectionID    string               `json:"sectionId"`
	Participants []domain.Participant `json:"participants"`
	Total        int                  `json:"total"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "timestamp": time.Now().UTC()})
}

func (h *handlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.Stats())
}

func (h *handlers) rooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms()})
}

func (h *handlers) participants(c *gin.Context) {
	key, ok := roomKeyParam(c)
	if !ok {
		return
	}
	roster := h.orch.Roster(key)
	if roster == nil {
		roster = []domain.Participant{}
	}
	c.JSON(http.StatusOK, RosterResponse{
		ClassID:      key.ClassID,
		SectionID:    key.SectionID,
		Participants: roster,
		Total:        len(roster),
	})
}

func (h *handlers) pushEvent(c *gin.Context) {
	key, ok := roomKeyParam(c)
	if !ok {
		return
	}
	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Type) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid event"})
		return
	}

	var payload any
	if len(req.Payload) > 0 {
		payload = req.Payload
	}
	n, err := h.orch.BroadcastRoom(key, req.Type, payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ev := log.Info().Str("module", "adapters.http").Str("room", key.String()).Str("event", req.Type).Int("delivered", n)
	if id, ok := c.Get(identityKey); ok {
		ev = ev.Str("actor", id.(auth.Identity).ParticipantID)
	}
	ev.Msg("server event pushed")
	c.JSON(http.StatusAccepted, PushResponse{Delivered: n})
}

func roomKeyParam(c *gin.Context) (domain.RoomKey, bool) {
	key := domain.NewRoomKey(strings.TrimSpace(c.Param("classId")), strings.TrimSpace(c.Param("sectionId")))
	if key.IsZero() || len(key.ClassID) > domain.MaxIDLen || len(key.SectionID) > domain.MaxIDLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room"})
		return domain.RoomKey{}, false
	}
	return key, true
}
