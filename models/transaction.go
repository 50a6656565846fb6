package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// DateLayout is the wire and filter format of a transaction date.
const DateLayout = "2006-01-02"

// MaxCategoryLength mirrors the category column size.
const MaxCategoryLength = 100

// MaxAmount is the largest value DECIMAL(10,2) holds.
var MaxAmount = decimal.RequireFromString("99999999.99")

// Transaction is one income or expense entry owned by exactly one user.
type Transaction struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"user_id" gorm:"not null;index;index:idx_transactions_user_date,priority:1"`
	Type        string          `json:"type" gorm:"size:20;not null;check:chk_transactions_type,type IN ('income','expense')"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Category    string          `json:"category" gorm:"size:100;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Date        time.Time       `json:"date" gorm:"type:date;not null;index;index:idx_transactions_user_date,priority:2"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	User        User            `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName sets the table name
func (Transaction) TableName() string {
	return "transactions"
}

// IsValidType reports whether t is one of the two transaction types.
func IsValidType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

// Validate checks the invariants every stored transaction must satisfy.
func (t *Transaction) Validate() error {
	if !IsValidType(t.Type) {
		return invalid("type", "type must be either income or expense")
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if err := validateCategory(t.Category); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return invalid("date", "date is required")
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid("amount", "amount must be greater than zero")
	}
	if amount.GreaterThan(MaxAmount) {
		return invalid("amount", "amount is too large")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return invalid("amount", "amount must have at most two decimal places")
	}
	return nil
}

func validateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return invalid("category", "category is required")
	}
	if len([]rune(category)) > MaxCategoryLength {
		return invalid("category", "category is too long")
	}
	return nil
}

// TransactionPatch is a partial update. Nil fields keep their current value.
type TransactionPatch struct {
	Type        *string
	Amount      *decimal.Decimal
	Category    *string
	Description *string
	Date        *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Type == nil && p.Amount == nil && p.Category == nil && p.Description == nil && p.Date == nil
}

// Validate checks only the fields the patch supplies.
func (p TransactionPatch) Validate() error {
	if p.Type != nil && !IsValidType(*p.Type) {
		return invalid("type", "type must be either income or expense")
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return err
		}
	}
	if p.Date != nil && p.Date.IsZero() {
		return invalid("date", "date is required")
	}
	return nil
}

// ApplyTo merges the patch into t and returns the changed columns.
func (p TransactionPatch) ApplyTo(t *Transaction) map[string]interface{} {
	changes := make(map[string]interface{})
	if p.Type != nil {
		t.Type = *p.Type
		changes["type"] = t.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
		changes["amount"] = t.Amount
	}
	if p.Category != nil {
		t.Category = strings.TrimSpace(*p.Category)
		changes["category"] = t.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
		changes["description"] = t.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
		changes["date"] = t.Date
	}
	return changes
}
