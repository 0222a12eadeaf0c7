package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chirino/gina-service/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateUser(ctx context.Context, email string, passwordHash string, username *string) (*model.User, error) {
	user := model.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Username:     username,
		CreatedAt:    s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if s.isDuplicate(err) {
			return nil, &ConflictError{Message: "Email already registered", Code: "email_taken"}
		}
		return nil, fmt.Errorf("create user failed: %w", err)
	}
	return &user, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*model.User, error) {
	id, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: userID}
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: email}
		}
		return nil, fmt.Errorf("get user by email failed: %w", err)
	}
	return &user, nil
}

// FindOrCreateOIDCUser returns the user linked to an OIDC subject, linking an
// existing account with the same email or creating a new one on first use.
func (s *Store) FindOrCreateOIDCUser(ctx context.Context, subject string, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("oidc_subject = ?", subject).Take(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		email = normalizeEmail(email)
		if email == "" {
			email = "oidc:" + subject
		}
		err = tx.Where("email = ?", email).Take(&user).Error
		switch {
		case err == nil:
			user.OIDCSubject = &subject
			return tx.Model(&user).Update("oidc_subject", subject).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = model.User{
				ID:          uuid.New(),
				Email:       email,
				OIDCSubject: &subject,
				CreatedAt:   s.now(),
			}
			return tx.Create(&user).Error
		default:
			return err
		}
	})
	if err != nil {
		if s.isDuplicate(err) {
			// Another request provisioned the subject concurrently.
			var existing model.User
			if lookupErr := s.db.WithContext(ctx).Where("oidc_subject = ?", subject).Take(&existing).Error; lookupErr == nil {
				return &existing, nil
			}
		}
		return nil, fmt.Errorf("provision oidc user failed: %w", err)
	}
	return &user, nil
}

func (s *Store) UpdateUsername(ctx context.Context, userID string, username string) (*model.User, error) {
	id, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	result := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("username", username)
	if result.Error != nil {
		return nil, fmt.Errorf("update username failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, &NotFoundError{Resource: "user", ID: userID}
	}
	return s.GetUser(ctx, userID)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	id, err := parseID("user", userID)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if result.Error != nil {
		return fmt.Errorf("update password failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Resource: "user", ID: userID}
	}
	return nil
}

// DeleteUser removes the user. ON DELETE CASCADE removes every owned record.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	id, err := parseID("user", userID)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if result.Error != nil {
		return fmt.Errorf("delete user failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Resource: "user", ID: userID}
	}
	return nil
}
