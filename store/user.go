package store

import (
	"context"
	"errors"
	"time"

	"clarity/models"

	"gorm.io/gorm"
)

// UserStore persists accounts.
type UserStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewUserStore wraps a pooled handle. timeout bounds each call; zero disables it.
func NewUserStore(db *gorm.DB, timeout time.Duration) *UserStore {
	return &UserStore{db: db, timeout: timeout}
}

// Create inserts u. A taken email yields ErrDuplicateEmail, both from the
// pre-check and from the unique index when two signups race.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}

	err := db.Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}

// FindByEmail looks an account up by its normalized email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Get looks an account up by id.
func (s *UserStore) Get(ctx context.Context, id uint) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes the account. The foreign key removes its transactions.
func (s *UserStore) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	result := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
