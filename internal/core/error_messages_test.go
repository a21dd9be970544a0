package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/devicebulk/internal/batch"
	"github.com/JonMunkholm/devicebulk/internal/schema"
	"github.com/JonMunkholm/devicebulk/internal/table"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "schema error",
			err:      &schema.SchemaError{Source: "rel.csv", Err: errors.New("missing column: ParentTable")},
			wantCode: "REL001",
		},
		{
			name:     "ambiguous relation",
			err:      fmt.Errorf("%w: DevicePort -> Device via FK1, FK2", schema.ErrAmbiguousRelation),
			wantCode: "REL002",
		},
		{
			name:     "root table missing wins over inner not found",
			err:      fmt.Errorf("%w: Device: %v", ErrRootTableMissing, &table.IoError{Table: "Device", Err: table.ErrTableNotFound}),
			wantCode: "TBL001",
		},
		{
			name:     "table not found",
			err:      &table.IoError{Table: "Port", Err: table.ErrTableNotFound},
			wantCode: "TBL002",
		},
		{
			name:     "unreadable table",
			err:      &table.IoError{Table: "Port", Path: "/d/Port.csv", Err: errors.New("permission denied")},
			wantCode: "TBL003",
		},
		{
			name:     "audit unavailable",
			err:      ErrAuditUnavailable,
			wantCode: "AUD001",
		},
		{
			name:     "validation error",
			err:      &ValidationError{Operation: OpDelete, Table: "Device", Message: "missing key column DeviceID"},
			wantCode: "VAL001",
		},
		{
			name:     "write error",
			err:      &table.WriteError{Table: "Device", Err: errors.New("no space left on device")},
			wantCode: "WRT001",
		},
		{
			name:     "unsupported format",
			err:      fmt.Errorf("x.ods: %w", batch.ErrUnsupportedFormat),
			wantCode: "FILE003",
		},
		{
			name:     "duplicate header",
			err:      fmt.Errorf("x.csv: %w: Name", batch.ErrDuplicateHeader),
			wantCode: "FILE006",
		},
		{
			name:     "batch busy",
			err:      ErrBatchBusy,
			wantCode: "BAT001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("INVALID CSV: bare quote"),
			wantCode: "FILE002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrBatchBusy)

	expected := "Another batch is being applied (Code: BAT001). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", errors.New("empty file"), true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &table.WriteError{Table: "Device", Err: errors.New("disk full")}
		userErr := NewUserError(techErr)

		if userErr.Error() != "A table could not be saved" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}
