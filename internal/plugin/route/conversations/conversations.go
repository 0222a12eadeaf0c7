package conversations

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts the conversation history endpoints.
func MountRoutes(r *gin.Engine, store registrystore.RecordStore, auth gin.HandlerFunc) {
	g := r.Group("/conversations", auth)
	g.GET("/latest", func(c *gin.Context) { latest(c, store) })
	g.DELETE("", func(c *gin.Context) { clearHistory(c, store) })
}

func latest(c *gin.Context, store registrystore.RecordStore) {
	history, err := store.GetLatestHistory(c.Request.Context(), security.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	if history == nil {
		c.JSON(http.StatusOK, gin.H{"history": []model.Turn{}})
		return
	}
	turns := history.Turns
	if turns == nil {
		turns = []model.Turn{}
	}
	c.JSON(http.StatusOK, gin.H{"history": turns, "updatedAt": history.UpdatedAt})
}

func clearHistory(c *gin.Context, store registrystore.RecordStore) {
	if err := store.DeleteHistory(c.Request.Context(), security.GetUserID(c)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func handleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	default:
		log.Error("Conversation request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
