package store

import (
	"context"
	"fmt"
	"time"

	"github.com/chirino/gina-service/internal/model"
)

// ConversationHistory is the decrypted live history of a user.
type ConversationHistory struct {
	Turns     []model.Turn `json:"history"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// IntakeUpdate is a partial intake submission. Nil fields keep their stored value.
type IntakeUpdate struct {
	FullName         *string `json:"full_name"`
	Age              *int    `json:"age"`
	Pronouns         *string `json:"pronouns"`
	Location         *string `json:"location"`
	PresentingIssues *string `json:"presenting_issues"`
	Goals            *string `json:"goals"`
	Symptoms         *string `json:"symptoms"`
	Severity         *int    `json:"severity"`
	Duration         *string `json:"duration"`
	RiskFactors      *string `json:"risk_factors"`
	Medications      *string `json:"medications"`
	HistoryTherapy   *string `json:"history_therapy"`
	Preferences      *string `json:"preferences"`
	Availability     *string `json:"availability"`
	Suggestion       *string `json:"suggestion"`
}

// Apply overlays the non-nil fields of u onto in.
func (u IntakeUpdate) Apply(in *model.Intake) {
	setIf(&in.FullName, u.FullName)
	setIf(&in.Age, u.Age)
	setIf(&in.Pronouns, u.Pronouns)
	setIf(&in.Location, u.Location)
	setIf(&in.PresentingIssues, u.PresentingIssues)
	setIf(&in.Goals, u.Goals)
	setIf(&in.Symptoms, u.Symptoms)
	setIf(&in.Severity, u.Severity)
	setIf(&in.Duration, u.Duration)
	setIf(&in.RiskFactors, u.RiskFactors)
	setIf(&in.Medications, u.Medications)
	setIf(&in.HistoryTherapy, u.HistoryTherapy)
	setIf(&in.Preferences, u.Preferences)
	setIf(&in.Availability, u.Availability)
	setIf(&in.Suggestion, u.Suggestion)
}

func setIf[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

// JournalUpdate defines mutable journal fields.
type JournalUpdate struct {
	Content *string
	Tags    []string // nil leaves tags unchanged
}

// JournalQuery holds parameters for journal search.
type JournalQuery struct {
	Text  string
	Tag   string
	From  *time.Time
	To    *time.Time
	Limit int
}

// MetricInput is a new metrics log row.
type MetricInput struct {
	Type      model.MetricType
	Value     *float64
	Label     *string
	Intensity *float64
	Notes     *string
	Extras    map[string]interface{}
}

// MetricQuery holds parameters for metrics log listing.
type MetricQuery struct {
	Type  *model.MetricType
	From  *time.Time
	To    *time.Time
	Limit int
}

// GoalUpdate defines mutable goal fields.
type GoalUpdate struct {
	Title       *string
	Status      *model.GoalStatus
	StreakCount *int
	LastDone    *time.Time
}

// RecordStore is the durable storage for users and their per-user records.
// Each per-user blob is read and replaced as a whole; there is no
// optimistic-concurrency token.
type RecordStore interface {
	// Users
	CreateUser(ctx context.Context, email string, passwordHash string, username *string) (*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindOrCreateOIDCUser(ctx context.Context, subject string, email string) (*model.User, error)
	UpdateUsername(ctx context.Context, userID string, username string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error
	DeleteUser(ctx context.Context, userID string) error

	// Conversation history. GetLatestHistory returns nil when none is stored.
	GetLatestHistory(ctx context.Context, userID string) (*ConversationHistory, error)
	ReplaceHistory(ctx context.Context, userID string, turns []model.Turn) error
	DeleteHistory(ctx context.Context, userID string) error

	// Intake. GetIntake returns nil when none is stored.
	GetIntake(ctx context.Context, userID string) (*model.Intake, error)
	UpsertIntake(ctx context.Context, userID string, update IntakeUpdate) (*model.Intake, error)

	// Facts. GetFacts returns an empty map when none are stored.
	GetFacts(ctx context.Context, userID string) (model.Facts, error)
	ReplaceFacts(ctx context.Context, userID string, facts model.Facts) error
	// MergeFacts overlays patch onto the stored facts and returns the result.
	MergeFacts(ctx context.Context, userID string, patch model.Facts) (model.Facts, error)

	// Journals
	CreateJournal(ctx context.Context, userID string, content string, tags []string) (*model.Journal, error)
	ListJournals(ctx context.Context, userID string, limit int) ([]model.Journal, error)
	UpdateJournal(ctx context.Context, userID string, journalID string, update JournalUpdate) (*model.Journal, error)
	DeleteJournal(ctx context.Context, userID string, journalID string) error
	SearchJournals(ctx context.Context, userID string, query JournalQuery) ([]model.Journal, error)

	// Metrics log
	LogMetric(ctx context.Context, userID string, input MetricInput) (*model.MetricEntry, error)
	ListMetrics(ctx context.Context, userID string, query MetricQuery) ([]model.MetricEntry, error)

	// Goals
	CreateGoal(ctx context.Context, userID string, title string) (*model.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]model.Goal, error)
	UpdateGoal(ctx context.Context, userID string, goalID string, update GoalUpdate) (*model.Goal, error)
	DeleteGoal(ctx context.Context, userID string, goalID string) error

	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error
}

// Loader creates a RecordStore from config.
type Loader func(ctx context.Context) (RecordStore, error)

// Plugin represents a store plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a store plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q; valid: %v", name, Names())
}
