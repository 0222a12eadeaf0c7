package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity anchor. Every other record is owned by a user and
// removed with it.
type User struct {
	ID           uuid.UUID `json:"id"                 gorm:"primaryKey;type:uuid"`
	Email        string    `json:"email"              gorm:"not null;uniqueIndex"`
	PasswordHash string    `json:"-"                  gorm:"column:password_hash"`
	Username     *string   `json:"username,omitempty"`
	OIDCSubject  *string   `json:"-"                  gorm:"column:oidc_subject;uniqueIndex"`
	CreatedAt    time.Time `json:"createdAt"          gorm:"not null"`
}

func (User) TableName() string { return "users" }

// DisplayName returns the username when set, otherwise the email.
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.Email
}

// Conversation holds the single live history blob for a user.
type Conversation struct {
	ID        uuid.UUID `json:"id"        gorm:"primaryKey;type:uuid"`
	UserID    string    `json:"-"         gorm:"not null;uniqueIndex;type:uuid"`
	History   []byte    `json:"-"         gorm:"not null"` // encrypted JSON []Turn
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null"`
}

func (Conversation) TableName() string { return "conversations" }

// Intake is the onboarding questionnaire snapshot, one per user.
// JSON names follow the questionnaire form fields.
type Intake struct {
	ID               uuid.UUID `json:"id"                gorm:"primaryKey;type:uuid"`
	UserID           string    `json:"user_id"           gorm:"not null;uniqueIndex;type:uuid"`
	FullName         *string   `json:"full_name"`
	Age              *int      `json:"age"`
	Pronouns         *string   `json:"pronouns"`
	Location         *string   `json:"location"`
	PresentingIssues *string   `json:"presenting_issues"`
	Goals            *string   `json:"goals"`
	Symptoms         *string   `json:"symptoms"`
	Severity         *int      `json:"severity"`
	Duration         *string   `json:"duration"`
	RiskFactors      *string   `json:"risk_factors"`
	Medications      *string   `json:"medications"`
	HistoryTherapy   *string   `json:"history_therapy"`
	Preferences      *string   `json:"preferences"`
	Availability     *string   `json:"availability"`
	Suggestion       *string   `json:"suggestion"`
	UpdatedAt        time.Time `json:"updated_at"        gorm:"not null"`
}

func (Intake) TableName() string { return "intakes" }

// Memory stores the facts blob for a user.
type Memory struct {
	ID        uuid.UUID `json:"id"        gorm:"primaryKey;type:uuid"`
	UserID    string    `json:"-"         gorm:"not null;uniqueIndex;type:uuid"`
	Facts     Facts     `json:"facts"     gorm:"serializer:json;not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null"`
}

func (Memory) TableName() string { return "memories" }

// Journal is a private journal entry. Content is decrypted into Content on read.
type Journal struct {
	ID          uuid.UUID `json:"id"        gorm:"primaryKey;type:uuid"`
	UserID      string    `json:"-"         gorm:"not null;index;type:uuid"`
	Content     string    `json:"content"   gorm:"-"`
	ContentData []byte    `json:"-"         gorm:"column:content;not null"` // encrypted
	Tags        []string  `json:"tags"      gorm:"serializer:json;not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"not null"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"not null"`
}

func (Journal) TableName() string { return "journals" }

// MetricType names the kind of self-reported metric in the metrics log.
type MetricType string

const (
	MetricWellbeing MetricType = "wellbeing"
	MetricStress    MetricType = "stress"
	MetricMood      MetricType = "mood"
)

// Valid reports whether t is a known metric type.
func (t MetricType) Valid() bool {
	switch t {
	case MetricWellbeing, MetricStress, MetricMood:
		return true
	}
	return false
}

// MetricEntry is a single row of the metrics log.
type MetricEntry struct {
	ID        uuid.UUID              `json:"id"                  gorm:"primaryKey;type:uuid"`
	UserID    string                 `json:"-"                   gorm:"not null;index;type:uuid"`
	Type      MetricType             `json:"type"                gorm:"not null"`
	Value     *float64               `json:"value,omitempty"`
	Label     *string                `json:"label,omitempty"`
	Intensity *float64               `json:"intensity,omitempty"`
	Notes     *string                `json:"notes,omitempty"`
	Extras    map[string]interface{} `json:"extras"              gorm:"serializer:json;not null"`
	CreatedAt time.Time              `json:"createdAt"           gorm:"not null"`
}

func (MetricEntry) TableName() string { return "metrics_log" }

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive GoalStatus = "active"
	GoalDone   GoalStatus = "done"
	GoalPaused GoalStatus = "paused"
)

// Valid reports whether s is a known goal status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalDone, GoalPaused:
		return true
	}
	return false
}

// Goal is a user-defined habit or goal with a streak counter.
type Goal struct {
	ID          uuid.UUID  `json:"id"                 gorm:"primaryKey;type:uuid"`
	UserID      string     `json:"-"                  gorm:"not null;index;type:uuid"`
	Title       string     `json:"title"              gorm:"not null"`
	Status      GoalStatus `json:"status"             gorm:"not null"`
	StreakCount int        `json:"streakCount"        gorm:"not null"`
	LastDone    *time.Time `json:"lastDone,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"          gorm:"not null"`
}

func (Goal) TableName() string { return "goals" }
