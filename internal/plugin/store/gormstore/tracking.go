package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultMetricsLimit = 100
	maxMetricsLimit     = 500
)

// --- Metrics log ---

func (s *Store) LogMetric(ctx context.Context, userID string, input registrystore.MetricInput) (*model.MetricEntry, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, &ValidationError{Field: "type", Message: "type must be one of wellbeing, stress, mood"}
	}
	extras := input.Extras
	if extras == nil {
		extras = map[string]interface{}{}
	}
	entry := model.MetricEntry{
		ID:        uuid.New(),
		UserID:    uid.String(),
		Type:      input.Type,
		Value:     input.Value,
		Label:     input.Label,
		Intensity: input.Intensity,
		Notes:     input.Notes,
		Extras:    extras,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("log metric failed: %w", err)
	}
	return &entry, nil
}

func (s *Store) ListMetrics(ctx context.Context, userID string, query registrystore.MetricQuery) ([]model.MetricEntry, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("user_id = ?", uid)
	if query.Type != nil {
		q = q.Where("type = ?", string(*query.Type))
	}
	if query.From != nil {
		q = q.Where("created_at >= ?", query.From.UTC())
	}
	if query.To != nil {
		q = q.Where("created_at <= ?", query.To.UTC())
	}
	var rows []model.MetricEntry
	err = q.Order("created_at DESC").
		Limit(clampLimit(query.Limit, defaultMetricsLimit, maxMetricsLimit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list metrics failed: %w", err)
	}
	return rows, nil
}

// --- Goals ---

func (s *Store) CreateGoal(ctx context.Context, userID string, title string) (*model.Goal, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "Title required"}
	}
	goal := model.Goal{
		ID:        uuid.New(),
		UserID:    uid.String(),
		Title:     title,
		Status:    model.GoalActive,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&goal).Error; err != nil {
		return nil, fmt.Errorf("create goal failed: %w", err)
	}
	return &goal, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	var goals []model.Goal
	if err := s.db.WithContext(ctx).Where("user_id = ?", uid).Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals failed: %w", err)
	}
	return goals, nil
}

func (s *Store) UpdateGoal(ctx context.Context, userID string, goalID string, update registrystore.GoalUpdate) (*model.Goal, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	gid, err := parseID("goal", goalID)
	if err != nil {
		return nil, err
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "Title required"}
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, &ValidationError{Field: "status", Message: "status must be one of active, done, paused"}
	}
	if update.StreakCount != nil && *update.StreakCount < 0 {
		return nil, &ValidationError{Field: "streak_count", Message: "streak_count must not be negative"}
	}

	var goal model.Goal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", gid, uid).Take(&goal).Error; err != nil {
			return err
		}
		if update.Title != nil {
			goal.Title = strings.TrimSpace(*update.Title)
		}
		if update.Status != nil {
			goal.Status = *update.Status
		}
		if update.StreakCount != nil {
			goal.StreakCount = *update.StreakCount
		}
		if update.LastDone != nil {
			t := update.LastDone.UTC()
			goal.LastDone = &t
		}
		return tx.Save(&goal).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "goal", ID: goalID}
	}
	if err != nil {
		return nil, fmt.Errorf("update goal failed: %w", err)
	}
	return &goal, nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID string, goalID string) error {
	uid, err := parseID("user", userID)
	if err != nil {
		return err
	}
	gid, err := parseID("goal", goalID)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", gid, uid).Delete(&model.Goal{})
	if result.Error != nil {
		return fmt.Errorf("delete goal failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Resource: "goal", ID: goalID}
	}
	return nil
}
