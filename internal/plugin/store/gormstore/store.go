// Package gormstore implements the record store on top of GORM. The postgres
// and sqlite plugins open a dialect and hand the connection to Open.
package gormstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chirino/gina-service/internal/config"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Re-exported so callers can match on them without importing the registry.
type NotFoundError = registrystore.NotFoundError
type ValidationError = registrystore.ValidationError
type ConflictError = registrystore.ConflictError

// DuplicateKeyFunc reports whether err is a unique constraint violation of
// the underlying database.
type DuplicateKeyFunc func(err error) bool

// Store implements registrystore.RecordStore using GORM.
type Store struct {
	db          *gorm.DB
	gcms        []cipher.AEAD
	isDuplicate DuplicateKeyFunc
	now         func() time.Time
}

// Options configures Open.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	// EncryptionKeys is a comma-separated key list; the first key encrypts,
	// all keys are tried on decrypt. Empty disables encryption at rest.
	EncryptionKeys string
	IsDuplicate    DuplicateKeyFunc
}

// OptionsFromConfig builds Options from the application config.
func OptionsFromConfig(cfg *config.Config, isDuplicate DuplicateKeyFunc) Options {
	return Options{
		MaxOpenConns:   cfg.DBMaxOpenConns,
		MaxIdleConns:   cfg.DBMaxIdleConns,
		EncryptionKeys: cfg.EncryptionKey,
		IsDuplicate:    isDuplicate,
	}
}

// Open wraps an opened GORM connection. The pool gauges are refreshed until
// ctx is done.
func Open(ctx context.Context, db *gorm.DB, opts Options) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		if security.DBPoolMaxConnections != nil {
			security.DBPoolMaxConnections.Set(float64(opts.MaxOpenConns))
		}
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if security.DBPoolOpenConnections != nil {
					security.DBPoolOpenConnections.Set(float64(sqlDB.Stats().OpenConnections))
				}
			}
		}
	}()

	s := &Store{db: db, isDuplicate: opts.IsDuplicate, now: func() time.Time { return time.Now().UTC() }}
	if s.isDuplicate == nil {
		s.isDuplicate = func(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }
	}
	if opts.EncryptionKeys != "" {
		keys, err := config.DecodeEncryptionKeysCSV(opts.EncryptionKeys)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		for _, key := range keys {
			gcm, err := newGCM(key)
			if err != nil {
				return nil, fmt.Errorf("failed to create GCM: %w", err)
			}
			s.gcms = append(s.gcms, gcm)
		}
	}
	return s, nil
}

// DB exposes the connection for migrations and tests.
func (s *Store) DB() *gorm.DB { return s.db }

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	if len(s.gcms) == 0 || plaintext == nil {
		return plaintext, nil
	}
	gcm := s.gcms[0]
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) decrypt(ciphertext []byte) ([]byte, error) {
	if len(s.gcms) == 0 || ciphertext == nil {
		return ciphertext, nil
	}
	var lastErr error
	for _, gcm := range s.gcms {
		nonceSize := gcm.NonceSize()
		if len(ciphertext) < nonceSize {
			lastErr = fmt.Errorf("ciphertext too short")
			continue
		}
		nonce, payload := ciphertext[:nonceSize], ciphertext[nonceSize:]
		plaintext, err := gcm.Open(nil, nonce, payload, nil)
		if err == nil {
			return plaintext, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// decryptString falls back to the raw bytes for rows written before
// encryption was enabled.
func (s *Store) decryptString(data []byte) string {
	plain, err := s.decrypt(data)
	if err != nil {
		return string(data)
	}
	return string(plain)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// parseID validates a record id taken from a request path. Malformed ids
// cannot exist, so they are reported as not found.
func parseID(resource, id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, &NotFoundError{Resource: resource, ID: id}
	}
	return parsed, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

var _ registrystore.RecordStore = (*Store)(nil)
