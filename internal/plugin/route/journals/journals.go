// Package journals serves the private journal.
package journals

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts the journal endpoints.
func MountRoutes(r *gin.Engine, store registrystore.RecordStore, auth gin.HandlerFunc) {
	g := r.Group("/journals", auth)
	g.POST("", func(c *gin.Context) { createJournal(c, store) })
	g.GET("", func(c *gin.Context) { listJournals(c, store) })
	g.GET("/search", func(c *gin.Context) { searchJournals(c, store) })
	g.PUT("/:id", func(c *gin.Context) { updateJournal(c, store) })
	g.DELETE("/:id", func(c *gin.Context) { deleteJournal(c, store) })
}

type journalRequest struct {
	Content *string         `json:"content"`
	Tags    json.RawMessage `json:"tags"`
}

// tags returns nil when the field is absent or not a list of strings.
func (r journalRequest) tags() []string {
	if len(r.Tags) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(r.Tags, &tags); err != nil {
		return nil
	}
	if tags == nil {
		return nil
	}
	return tags
}

func createJournal(c *gin.Context, store registrystore.RecordStore) {
	var req journalRequest
	_ = c.ShouldBindJSON(&req)
	if req.Content == nil || strings.TrimSpace(*req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	journal, err := store.CreateJournal(c.Request.Context(), security.GetUserID(c), strings.TrimSpace(*req.Content), req.tags())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journal": journal})
}

func listJournals(c *gin.Context, store registrystore.RecordStore) {
	journals, err := store.ListJournals(c.Request.Context(), security.GetUserID(c), queryInt(c, "limit", 0))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journals": journals})
}

func updateJournal(c *gin.Context, store registrystore.RecordStore) {
	var req journalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	journal, err := store.UpdateJournal(c.Request.Context(), security.GetUserID(c), c.Param("id"), registrystore.JournalUpdate{
		Content: req.Content,
		Tags:    req.tags(),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journal": journal})
}

func deleteJournal(c *gin.Context, store registrystore.RecordStore) {
	if err := store.DeleteJournal(c.Request.Context(), security.GetUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func searchJournals(c *gin.Context, store registrystore.RecordStore) {
	from, err := queryTime(c, "from", false)
	if err != nil {
		handleError(c, err)
		return
	}
	to, err := queryTime(c, "to", true)
	if err != nil {
		handleError(c, err)
		return
	}
	journals, err := store.SearchJournals(c.Request.Context(), security.GetUserID(c), registrystore.JournalQuery{
		Text:  c.Query("q"),
		Tag:   c.Query("tag"),
		From:  from,
		To:    to,
		Limit: queryInt(c, "limit", 0),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"journals": journals})
}

func handleError(c *gin.Context, err error) {
	var notFound *registrystore.NotFoundError
	var validation *registrystore.ValidationError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation_error", "error": err.Error(), "field": validation.Field})
	default:
		log.Error("Journal request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	var i int
	if _, err := fmt.Sscanf(v, "%d", &i); err != nil {
		return def
	}
	return i
}

// queryTime parses an RFC 3339 timestamp or a YYYY-MM-DD date. A bare date
// used as an upper bound covers the whole day.
func queryTime(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, &registrystore.ValidationError{Field: key, Message: "must be an RFC 3339 timestamp or YYYY-MM-DD date"}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
