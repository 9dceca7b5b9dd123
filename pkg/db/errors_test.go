package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"

	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
)

func TestIsSerializationFailure(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock detected", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "wrapped deadlock", err: fmt.Errorf("saving row: %w", &pgconn.PgError{Code: "40P01"}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "plain error", err: errors.New("connection reset"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsSerializationFailure(tc.err); got != tc.want {
				t.Fatalf("IsSerializationFailure(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestWrapTxErrorTypesConcurrentConflicts(t *testing.T) {
	t.Parallel()

	if got := wrapTxError(nil); got != nil {
		t.Fatalf("expected nil passthrough, got %v", got)
	}

	plain := errors.New("connection reset")
	if got := wrapTxError(plain); got != plain {
		t.Fatalf("expected plain error passthrough, got %v", got)
	}

	conflict := wrapTxError(fmt.Errorf("committing: %w", &pgconn.PgError{Code: "40001"}))
	if !pkgerrors.HasCode(conflict, pkgerrors.CodeConcurrent) {
		t.Fatalf("expected concurrent-modification code, got %v", conflict)
	}

	deadlock := wrapTxError(&pgconn.PgError{Code: "40P01"})
	if !pkgerrors.HasCode(deadlock, pkgerrors.CodeConcurrent) {
		t.Fatalf("expected concurrent-modification code for deadlock, got %v", deadlock)
	}
}
