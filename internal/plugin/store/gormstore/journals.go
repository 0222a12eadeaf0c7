package gormstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 200
	defaultSearchLimit  = 100
	maxSearchLimit      = 300
)

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) loadJournal(j *model.Journal) {
	j.Content = s.decryptString(j.ContentData)
	if j.Tags == nil {
		j.Tags = []string{}
	}
}

func (s *Store) CreateJournal(ctx context.Context, userID string, content string, tags []string) (*model.Journal, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Message: "Content required"}
	}
	data, err := s.encrypt([]byte(content))
	if err != nil {
		return nil, err
	}
	now := s.now()
	j := model.Journal{
		ID:          uuid.New(),
		UserID:      uid.String(),
		Content:     content,
		ContentData: data,
		Tags:        cleanTags(tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&j).Error; err != nil {
		return nil, fmt.Errorf("create journal failed: %w", err)
	}
	return &j, nil
}

func (s *Store) ListJournals(ctx context.Context, userID string, limit int) ([]model.Journal, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	var rows []model.Journal
	err = s.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("created_at DESC").
		Limit(clampLimit(limit, defaultJournalLimit, maxJournalLimit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list journals failed: %w", err)
	}
	for i := range rows {
		s.loadJournal(&rows[i])
	}
	return rows, nil
}

func (s *Store) UpdateJournal(ctx context.Context, userID string, journalID string, update registrystore.JournalUpdate) (*model.Journal, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	jid, err := parseID("journal", journalID)
	if err != nil {
		return nil, err
	}
	if update.Content != nil && strings.TrimSpace(*update.Content) == "" {
		return nil, &ValidationError{Field: "content", Message: "Content required"}
	}

	var j model.Journal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", jid, uid).Take(&j).Error; err != nil {
			return err
		}
		s.loadJournal(&j)
		if update.Content != nil {
			data, err := s.encrypt([]byte(*update.Content))
			if err != nil {
				return err
			}
			j.Content = *update.Content
			j.ContentData = data
		}
		if update.Tags != nil {
			j.Tags = cleanTags(update.Tags)
		}
		j.UpdatedAt = s.now()
		return tx.Save(&j).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "journal", ID: journalID}
	}
	if err != nil {
		return nil, fmt.Errorf("update journal failed: %w", err)
	}
	return &j, nil
}

func (s *Store) DeleteJournal(ctx context.Context, userID string, journalID string) error {
	uid, err := parseID("user", userID)
	if err != nil {
		return err
	}
	jid, err := parseID("journal", journalID)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", jid, uid).Delete(&model.Journal{})
	if result.Error != nil {
		return fmt.Errorf("delete journal failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Resource: "journal", ID: journalID}
	}
	return nil
}

// SearchJournals filters by tag and creation time in SQL. The text match is
// applied after decryption and is case-insensitive. Tags containing LIKE
// wildcards are matched in Go instead.
func (s *Store) SearchJournals(ctx context.Context, userID string, query registrystore.JournalQuery) ([]model.Journal, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	limit := clampLimit(query.Limit, defaultSearchLimit, maxSearchLimit)

	q := s.db.WithContext(ctx).Where("user_id = ?", uid)
	tag := strings.TrimSpace(query.Tag)
	exactTag := strings.ContainsAny(tag, "%_")
	if tag != "" && !exactTag {
		q = q.Where("tags LIKE ?", `%"`+tag+`"%`)
	}
	if query.From != nil {
		q = q.Where("created_at >= ?", query.From.UTC())
	}
	if query.To != nil {
		q = q.Where("created_at <= ?", query.To.UTC())
	}
	q = q.Order("created_at DESC")

	text := strings.ToLower(strings.TrimSpace(query.Text))
	if text == "" && !exactTag {
		var rows []model.Journal
		if err := q.Limit(limit).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("search journals failed: %w", err)
		}
		for i := range rows {
			s.loadJournal(&rows[i])
		}
		return rows, nil
	}

	var candidates []model.Journal
	if err := q.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("search journals failed: %w", err)
	}
	out := make([]model.Journal, 0, limit)
	for i := range candidates {
		s.loadJournal(&candidates[i])
		if tag != "" && !slices.Contains(candidates[i].Tags, tag) {
			continue
		}
		if strings.Contains(strings.ToLower(candidates[i].Content), text) {
			out = append(out, candidates[i])
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
