// Package chat serves the companion chat turn.
package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/companion"
	"github.com/chirino/gina-service/internal/model"
	"github.com/chirino/gina-service/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MountRoutes mounts POST /chat. auth should be optional auth: anonymous
// callers get a stateless turn.
func MountRoutes(r *gin.Engine, orchestrator *companion.Orchestrator, auth gin.HandlerFunc) {
	r.POST("/chat", auth, func(c *gin.Context) { chat(c, orchestrator) })
}

type chatRequest struct {
	Message             string          `json:"message"`
	ConversationHistory json.RawMessage `json:"conversationHistory"`
	MentalMetrics       json.RawMessage `json:"mentalMetrics"`
}

func chat(c *gin.Context, orchestrator *companion.Orchestrator) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	result, err := orchestrator.HandleTurn(c.Request.Context(), companion.TurnRequest{
		UserID:     security.GetUserID(c),
		Message:    req.Message,
		History:    parseHistory(req.ConversationHistory),
		Metrics:    model.ParseMentalMetrics(req.MentalMetrics),
		RawMetrics: req.MentalMetrics,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	// "response" and "saved" keep older clients working.
	c.JSON(http.StatusOK, gin.H{
		"reply":     result.Reply,
		"response":  result.Reply,
		"timestamp": result.Timestamp.UTC().Format(time.RFC3339Nano),
		"persisted": result.HistorySaved,
		"saved":     result.HistorySaved,
		"messageId": uuid.NewString(),
	})
}

// parseHistory drops a malformed history instead of failing the turn.
func parseHistory(raw json.RawMessage) []model.Turn {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var turns []model.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		log.Debug("Ignoring malformed conversation history", "err", err)
		return nil
	}
	return turns
}

func handleError(c *gin.Context, err error) {
	var validation *companion.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
	default:
		log.Error("Chat turn failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
