package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
)

// typedNilError lets errors.As extract a typed nil *sqlite3.Error.
type typedNilError struct {
	err *sqlite3.Error
}

func (e typedNilError) Error() string {
	return "typed nil error wrapper"
}

func (e typedNilError) As(target any) bool {
	if ptr, ok := target.(**sqlite3.Error); ok {
		*ptr = e.err
		return true
	}
	return false
}

func TestIsSQLiteError(t *testing.T) {
	readOnly := sqlite3.Error{Code: sqlite3.ErrReadonly}

	tests := []struct {
		name   string
		err    error
		substr string
		want   bool
	}{
		{"value form", fmt.Errorf("exec: %w", readOnly), readOnly.Error(), true},
		{"pointer form", fmt.Errorf("exec: %w", &readOnly), readOnly.Error(), true},
		{"unrelated substring", fmt.Errorf("exec: %w", readOnly), "no such table", false},
		{"typed nil pointer", typedNilError{}, "any", false},
		{"plain error", errors.New("some other error"), "error", false},
		{"nil", nil, "anything", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSQLiteError(tt.err, tt.substr); got != tt.want {
				t.Errorf("isSQLiteError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTableNotFound(t *testing.T) {
	if IsTableNotFound(nil) {
		t.Error("nil error should not be table-not-found")
	}
	if !IsTableNotFound(errors.New("no such table: ZABCDRECORD")) {
		t.Error("expected plain driver message to match")
	}
	if IsTableNotFound(errors.New("database is locked")) {
		t.Error("unexpected match for unrelated error")
	}
}
