package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: foreignKeyViolationCode}, store.ErrInvalidEntity},
		{"check violation", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "tasks_text_length"}, store.ErrInvalidEntity},
		{"not null violation", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "text"}, store.ErrInvalidEntity},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolationCode}), store.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, MapError(tt.err), tt.want)
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, MapError(nil))
	})

	t.Run("unmapped errors pass through", func(t *testing.T) {
		original := errors.New("connection reset")
		assert.Same(t, original, MapError(original))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: checkViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("other")))
}

func TestParseKeyDetail(t *testing.T) {
	assert.Equal(t, map[string]string{"id": "abc"}, parseKeyDetail("Key (id)=(abc) already exists."))
	assert.Equal(t,
		map[string]string{"owner_id": "o1", "text": "milk"},
		parseKeyDetail("Key (owner_id, text)=(o1, milk) already exists."))
	assert.Nil(t, parseKeyDetail("something else"))
}

func TestCheckRowsAffected(t *testing.T) {
	assert.NoError(t, CheckRowsAffected(sqlmock.NewResult(0, 1), store.ErrTaskNotFound))
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), store.ErrTaskNotFound), store.ErrTaskNotFound)
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), nil), store.ErrNotFound)

	rowsErr := errors.New("driver does not support RowsAffected")
	err := CheckRowsAffected(sqlmock.NewErrorResult(rowsErr), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, rowsErr)

	assert.Error(t, CheckRowsAffected(nil, nil))
}
