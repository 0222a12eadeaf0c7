// Package tracking serves the metrics log and goals.
package tracking

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts the metrics log and goal endpoints.
func MountRoutes(r *gin.Engine, store registrystore.RecordStore, auth gin.HandlerFunc) {
	m := r.Group("/metrics-log", auth)
	m.POST("", func(c *gin.Context) { logMetric(c, store) })
	m.GET("", func(c *gin.Context) { listMetrics(c, store) })

	g := r.Group("/goals", auth)
	g.POST("", func(c *gin.Context) { createGoal(c, store) })
	g.GET("", func(c *gin.Context) { listGoals(c, store) })
	g.PUT("/:id", func(c *gin.Context) { updateGoal(c, store) })
	g.DELETE("/:id", func(c *gin.Context) { deleteGoal(c, store) })
}

type metricRequest struct {
	Type      string                 `json:"type"`
	Value     *model.Number          `json:"value"`
	Label     *string                `json:"label"`
	Intensity *model.Number          `json:"intensity"`
	Notes     *string                `json:"notes"`
	Extras    map[string]interface{} `json:"extras"`
}

func logMetric(c *gin.Context, store registrystore.RecordStore) {
	var req metricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metric: " + err.Error()})
		return
	}
	entry, err := store.LogMetric(c.Request.Context(), security.GetUserID(c), registrystore.MetricInput{
		Type:      model.MetricType(strings.ToLower(strings.TrimSpace(req.Type))),
		Value:     toFloat(req.Value),
		Label:     req.Label,
		Intensity: toFloat(req.Intensity),
		Notes:     req.Notes,
		Extras:    req.Extras,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metric": entry})
}

func listMetrics(c *gin.Context, store registrystore.RecordStore) {
	query := registrystore.MetricQuery{Limit: queryInt(c, "limit", 0)}
	if v := c.Query("type"); v != "" {
		t := model.MetricType(strings.ToLower(v))
		if !t.Valid() {
			handleError(c, &registrystore.ValidationError{Field: "type", Message: "type must be one of wellbeing, stress, mood"})
			return
		}
		query.Type = &t
	}
	var err error
	if query.From, err = queryTime(c, "from", false); err != nil {
		handleError(c, err)
		return
	}
	if query.To, err = queryTime(c, "to", true); err != nil {
		handleError(c, err)
		return
	}
	entries, err := store.ListMetrics(c.Request.Context(), security.GetUserID(c), query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": entries})
}

func createGoal(c *gin.Context, store registrystore.RecordStore) {
	var req struct {
		Title string `json:"title"`
	}
	_ = c.ShouldBindJSON(&req)
	goal, err := store.CreateGoal(c.Request.Context(), security.GetUserID(c), req.Title)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

func listGoals(c *gin.Context, store registrystore.RecordStore) {
	goals, err := store.ListGoals(c.Request.Context(), security.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func updateGoal(c *gin.Context, store registrystore.RecordStore) {
	var req struct {
		Title       *string           `json:"title"`
		Status      *model.GoalStatus `json:"status"`
		StreakCount *int              `json:"streakCount"`
		LastDone    *time.Time        `json:"lastDone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal: " + err.Error()})
		return
	}
	goal, err := store.UpdateGoal(c.Request.Context(), security.GetUserID(c), c.Param("id"), registrystore.GoalUpdate{
		Title:       req.Title,
		Status:      req.Status,
		StreakCount: req.StreakCount,
		LastDone:    req.LastDone,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

func deleteGoal(c *gin.Context, store registrystore.RecordStore) {
	if err := store.DeleteGoal(c.Request.Context(), security.GetUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func toFloat(n *model.Number) *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
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
		log.Error("Tracking request failed", "path", c.Request.URL.Path, "err", err)
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
