package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Conversation history ---

func (s *Store) GetLatestHistory(ctx context.Context, userID string) (*registrystore.ConversationHistory, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	var conv model.Conversation
	err = s.db.WithContext(ctx).Where("user_id = ?", uid).Take(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history failed: %w", err)
	}
	plain, err := s.decrypt(conv.History)
	if err != nil {
		plain = conv.History
	}
	var turns []model.Turn
	if err := json.Unmarshal(plain, &turns); err != nil {
		return nil, fmt.Errorf("decode history failed: %w", err)
	}
	if turns == nil {
		turns = []model.Turn{}
	}
	return &registrystore.ConversationHistory{Turns: turns, UpdatedAt: conv.UpdatedAt}, nil
}

func (s *Store) ReplaceHistory(ctx context.Context, userID string, turns []model.Turn) error {
	uid, err := parseID("user", userID)
	if err != nil {
		return err
	}
	if turns == nil {
		turns = []model.Turn{}
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode history failed: %w", err)
	}
	data, err = s.encrypt(data)
	if err != nil {
		return err
	}
	now := s.now()
	conv := model.Conversation{
		ID:        uuid.New(),
		UserID:    uid.String(),
		History:   data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"history", "updated_at"}),
	}).Create(&conv).Error
	if err != nil {
		return fmt.Errorf("replace history failed: %w", err)
	}
	return nil
}

func (s *Store) DeleteHistory(ctx context.Context, userID string) error {
	uid, err := parseID("user", userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", uid).Delete(&model.Conversation{}).Error; err != nil {
		return fmt.Errorf("delete history failed: %w", err)
	}
	return nil
}

// --- Intake ---

func (s *Store) GetIntake(ctx context.Context, userID string) (*model.Intake, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	var intake model.Intake
	err = s.db.WithContext(ctx).Where("user_id = ?", uid).Take(&intake).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get intake failed: %w", err)
	}
	return &intake, nil
}

// UpsertIntake overlays update onto the stored intake, creating it when absent.
func (s *Store) UpsertIntake(ctx context.Context, userID string, update registrystore.IntakeUpdate) (*model.Intake, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	var intake model.Intake
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Intake{
			ID:        uuid.New(),
			UserID:    uid.String(),
			UpdatedAt: s.now(),
		}).Error
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", uid).Take(&intake).Error; err != nil {
			return err
		}
		update.Apply(&intake)
		intake.UpdatedAt = s.now()
		return tx.Save(&intake).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert intake failed: %w", err)
	}
	return &intake, nil
}

// --- Facts ---

func (s *Store) GetFacts(ctx context.Context, userID string) (model.Facts, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	var mem model.Memory
	err = s.db.WithContext(ctx).Where("user_id = ?", uid).Take(&mem).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Facts{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get facts failed: %w", err)
	}
	if mem.Facts == nil {
		return model.Facts{}, nil
	}
	return mem.Facts, nil
}

func (s *Store) ReplaceFacts(ctx context.Context, userID string, facts model.Facts) error {
	uid, err := parseID("user", userID)
	if err != nil {
		return err
	}
	if facts == nil {
		facts = model.Facts{}
	}
	mem := model.Memory{ID: uuid.New(), UserID: uid.String(), Facts: facts, UpdatedAt: s.now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"facts", "updated_at"}),
	}).Create(&mem).Error
	if err != nil {
		return fmt.Errorf("replace facts failed: %w", err)
	}
	return nil
}

// MergeFacts reads, overlays and writes back the facts blob in one
// transaction. The row lock serializes concurrent merges on databases that
// support it; elsewhere the last write wins.
func (s *Store) MergeFacts(ctx context.Context, userID string, patch model.Facts) (model.Facts, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	var merged model.Facts
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Memory{
			ID:        uuid.New(),
			UserID:    uid.String(),
			Facts:     model.Facts{},
			UpdatedAt: s.now(),
		}).Error
		if err != nil {
			return err
		}
		var mem model.Memory
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", uid).Take(&mem).Error; err != nil {
			return err
		}
		mem.Facts = mem.Facts.Merge(patch)
		mem.UpdatedAt = s.now()
		if err := tx.Save(&mem).Error; err != nil {
			return err
		}
		merged = mem.Facts
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("merge facts failed: %w", err)
	}
	return merged, nil
}
