package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestTransactionSchema(t *testing.T) {
	s, err := schema.Parse(&Transaction{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	// deleting a user removes their transactions
	rel, ok := s.Relationships.Relations["User"]
	require.True(t, ok)
	fk := rel.ParseConstraint()
	require.NotNil(t, fk)
	assert.Equal(t, "fk_transactions_user", fk.Name)
	assert.Equal(t, "CASCADE", fk.OnDelete)

	checks := s.ParseCheckConstraints()
	require.Contains(t, checks, "chk_transactions_type")
	assert.Equal(t, "type IN ('income','expense')", checks["chk_transactions_type"].Constraint)

	indexes := s.ParseIndexes()
	require.Contains(t, indexes, "idx_transactions_user_date")
	var cols []string
	for _, f := range indexes["idx_transactions_user_date"].Fields {
		cols = append(cols, f.DBName)
	}
	assert.Equal(t, []string{"user_id", "date"}, cols)
}
