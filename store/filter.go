package store

import (
	"strings"
	"time"
)

// ListOrder sorts newest entries first; same-day entries by creation time.
const ListOrder = "date DESC, created_at DESC"

// TransactionFilter narrows a listing. Zero-valued fields are ignored.
type TransactionFilter struct {
	Type      string
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
}

// IsEmpty reports whether no filter is set.
func (f TransactionFilter) IsEmpty() bool {
	return f.Type == "" && f.Category == "" && f.StartDate == nil && f.EndDate == nil
}

// Where returns a predicate selecting only userID's rows, AND-ed with the
// present filters in the fixed order type, category, start, end, and the
// values to bind to its placeholders.
func (f TransactionFilter) Where(userID uint) (string, []interface{}) {
	clauses := []string{"user_id = ?"}
	args := []interface{}{userID}

	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, f.Type)
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.StartDate != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		clauses = append(clauses, "date <= ?")
		args = append(args, *f.EndDate)
	}

	return strings.Join(clauses, " AND "), args
}
