package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	t.Run("matches no rows", func(t *testing.T) {
		if !isNotFound(sql.ErrNoRows) {
			t.Fatalf("expected true for sql.ErrNoRows")
		}
	})

	t.Run("matches wrapped no rows", func(t *testing.T) {
		if !isNotFound(fmt.Errorf("get game: %w", sql.ErrNoRows)) {
			t.Fatalf("expected true for wrapped sql.ErrNoRows")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		if isNotFound(errors.New("connection refused")) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches 23505", func(t *testing.T) {
		err := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
		if !isUniqueViolation(fmt.Errorf("insert video: %w", err)) {
			t.Fatalf("expected true for unique violation")
		}
	})

	t.Run("ignores other pq codes", func(t *testing.T) {
		err := &pq.Error{Code: "23503", Message: "foreign key violation"}
		if isUniqueViolation(err) {
			t.Fatalf("expected false for foreign key violation")
		}
	})

	t.Run("ignores non-pq error", func(t *testing.T) {
		if isUniqueViolation(errors.New("duplicate key")) {
			t.Fatalf("expected false for plain error")
		}
	})
}

func TestNullConversions(t *testing.T) {
	t.Run("int64 round trip", func(t *testing.T) {
		value := int64(42)
		if got := nullInt64Ptr(int64PtrToNull(&value)); got == nil || *got != 42 {
			t.Fatalf("round trip = %v", got)
		}
		if got := nullInt64Ptr(int64PtrToNull(nil)); got != nil {
			t.Fatalf("nil round trip = %v", got)
		}
	})

	t.Run("int round trip", func(t *testing.T) {
		value := 104
		if got := nullIntPtr(intPtrToNull(&value)); got == nil || *got != 104 {
			t.Fatalf("round trip = %v", got)
		}
		if got := nullIntPtr(intPtrToNull(nil)); got != nil {
			t.Fatalf("nil round trip = %v", got)
		}
	})

	t.Run("string round trip", func(t *testing.T) {
		value := "7:30 PM ET"
		if got := nullStringPtr(stringPtrToNull(&value)); got == nil || *got != value {
			t.Fatalf("round trip = %v", got)
		}
		if got := nullStringPtr(stringPtrToNull(nil)); got != nil {
			t.Fatalf("nil round trip = %v", got)
		}
	})
}
