package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"clarity/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionStore persists transactions. All methods are safe for
// concurrent use; each call checks a connection out of the shared pool for
// the duration of its statements only.
type TransactionStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewTransactionStore wraps a pooled handle. timeout bounds each call; zero disables it.
func NewTransactionStore(db *gorm.DB, timeout time.Duration) *TransactionStore {
	return &TransactionStore{db: db, timeout: timeout}
}

// Create validates and inserts tx, filling in its id and timestamps.
func (s *TransactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	tx.Category = strings.TrimSpace(tx.Category)
	if err := tx.Validate(); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(tx).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrUnknownUser
	}
	return err
}

// Get returns the transaction only if userID owns it.
func (s *TransactionStore) Get(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.get(s.db.WithContext(ctx), userID, id)
}

func (s *TransactionStore) get(db *gorm.DB, userID, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// List returns userID's transactions matching filter, newest first.
func (s *TransactionStore) List(ctx context.Context, userID uint, filter TransactionFilter) ([]models.Transaction, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	where, args := filter.Where(userID)
	txs := make([]models.Transaction, 0)
	if err := s.db.WithContext(ctx).Where(where, args...).Order(ListOrder).Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Update applies patch to the owned transaction and returns the merged record.
//
// The owned row is read first and written with a second owner-scoped
// statement. The two are not wrapped in one database transaction, so two
// concurrent patches of the same row resolve last-write-wins.
func (s *TransactionStore) Update(ctx context.Context, userID, id uint, patch models.TransactionPatch) (*models.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	db := s.db.WithContext(ctx)

	current, err := s.get(db, userID, id)
	if err != nil {
		return nil, err
	}

	changes := patch.ApplyTo(current)
	if err := current.Validate(); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return current, nil
	}

	now := time.Now()
	changes["updated_at"] = now
	result := db.Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(changes)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// deleted between the read and the write
		return nil, ErrNotFound
	}

	current.UpdatedAt = now
	return current, nil
}

// Delete removes the owned transaction and returns it as it was.
func (s *TransactionStore) Delete(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	db := s.db.WithContext(ctx)

	current, err := s.get(db, userID, id)
	if err != nil {
		return nil, err
	}

	result := db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Transaction{})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return current, nil
}

// Summary totals income and expense over the filtered transactions.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Count        int64
}

// Balance is income minus expense.
func (s Summary) Balance() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpense)
}

type typeTotal struct {
	Type  string
	Total decimal.Decimal
	Count int64
}

// Summarize sums amounts per type in the database, so no float rounding is involved.
func (s *TransactionStore) Summarize(ctx context.Context, userID uint, filter TransactionFilter) (Summary, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	where, args := filter.Where(userID)
	var rows []typeTotal
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where(where, args...).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
	for _, row := range rows {
		switch row.Type {
		case models.TypeIncome:
			summary.TotalIncome = row.Total
		case models.TypeExpense:
			summary.TotalExpense = row.Total
		}
		summary.Count += row.Count
	}
	return summary, nil
}

// Categories lists the distinct categories userID has used, ascending.
func (s *TransactionStore) Categories(ctx context.Context, userID uint) ([]string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	categories := make([]string, 0)
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}
