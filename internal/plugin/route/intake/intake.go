// Package intake serves the onboarding questionnaire.
package intake

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/companion"
	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
	"github.com/gin-gonic/gin"
)

// MountRoutes mounts the intake endpoints.
func MountRoutes(r *gin.Engine, store registrystore.RecordStore, auth gin.HandlerFunc) {
	g := r.Group("/intake", auth)
	g.POST("", func(c *gin.Context) { submit(c, store, time.Now) })
	g.GET("", func(c *gin.Context) { get(c, store) })
	g.GET("/summary", func(c *gin.Context) { summary(c, store) })
}

// formInt accepts a number, a numeric string, or an empty value.
type formInt struct{ v *int }

func (f *formInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		f.v = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			f.v = nil
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return &registrystore.ValidationError{Field: "number", Message: "must be a number"}
	}
	i := int(math.Round(n))
	f.v = &i
	return nil
}

type intakeRequest struct {
	registrystore.IntakeUpdate
	Age      formInt `json:"age"`
	Severity formInt `json:"severity"`
}

func submit(c *gin.Context, store registrystore.RecordStore, now func() time.Time) {
	var req intakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "age and severity must be numbers"})
		return
	}
	update := req.IntakeUpdate
	update.Age = req.Age.v
	update.Severity = req.Severity.v

	ctx := c.Request.Context()
	userID := security.GetUserID(c)

	// Fields left out of a partial submission still count toward the suggestion.
	existing, err := store.GetIntake(ctx, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	issues, symptoms := update.PresentingIssues, update.Symptoms
	if existing != nil {
		if issues == nil {
			issues = existing.PresentingIssues
		}
		if symptoms == nil {
			symptoms = existing.Symptoms
		}
	}
	suggestion := companion.SuggestTherapy(deref(issues), deref(symptoms))
	update.Suggestion = &suggestion

	record, err := store.UpsertIntake(ctx, userID, update)
	if err != nil {
		handleError(c, err)
		return
	}
	if _, err := store.MergeFacts(ctx, userID, companion.IntakeFacts(update, suggestion, now())); err != nil {
		log.Warn("Failed to fold intake into facts", "userId", userID, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"intake": record})
}

func get(c *gin.Context, store registrystore.RecordStore) {
	record, err := store.GetIntake(c.Request.Context(), security.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intake": record})
}

func summary(c *gin.Context, store registrystore.RecordStore) {
	ctx := c.Request.Context()
	userID := security.GetUserID(c)
	record, err := store.GetIntake(ctx, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	facts, err := store.GetFacts(ctx, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	var intakeView interface{} = gin.H{}
	if record != nil {
		intakeView = record
	}
	if facts == nil {
		facts = model.Facts{}
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": companion.IntakeSummary(record, facts),
		"intake":  intakeView,
		"facts":   facts,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
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
		log.Error("Intake request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
