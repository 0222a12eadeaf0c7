package memories

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts the personal facts endpoints.
func MountRoutes(r *gin.Engine, store registrystore.RecordStore, auth gin.HandlerFunc) {
	g := r.Group("/memories", auth)
	g.GET("", func(c *gin.Context) { getFacts(c, store) })
	g.POST("", func(c *gin.Context) { mergeFacts(c, store) })
	g.PUT("", func(c *gin.Context) { replaceFacts(c, store) })
}

type factsRequest struct {
	Facts model.Facts `json:"facts"`
}

func getFacts(c *gin.Context, store registrystore.RecordStore) {
	facts, err := store.GetFacts(c.Request.Context(), security.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"facts": orEmpty(facts)})
}

func mergeFacts(c *gin.Context, store registrystore.RecordStore) {
	var req factsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "facts must be an object"})
		return
	}
	merged, err := store.MergeFacts(c.Request.Context(), security.GetUserID(c), orEmpty(req.Facts))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"facts": orEmpty(merged)})
}

// replaceFacts overwrites the whole blob, which is how a user forgets a fact.
func replaceFacts(c *gin.Context, store registrystore.RecordStore) {
	var req factsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "facts must be an object"})
		return
	}
	ctx := c.Request.Context()
	userID := security.GetUserID(c)
	if err := store.ReplaceFacts(ctx, userID, orEmpty(req.Facts)); err != nil {
		handleError(c, err)
		return
	}
	getFacts(c, store)
}

func orEmpty(f model.Facts) model.Facts {
	if f == nil {
		return model.Facts{}
	}
	return f
}

func handleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	default:
		log.Error("Memories request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
