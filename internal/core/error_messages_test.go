package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"empty input", structural(ReasonEmptyInput, ErrEmptyInput, ""), "IMP001"},
		{"too few columns", fmt.Errorf("%w: Animal registry needs at least 2 columns", ErrTooFewColumns), "IMP002"},
		{"workbook", fmt.Errorf("%w: open workbook: zip: not a valid zip file", ErrUnreadableInput), "IMP003"},
		{"file too large", fmt.Errorf("%w: more than 10 bytes", ErrInputTooLarge), "IMP004"},
		{"unknown entity", fmt.Errorf("%w: %q", ErrUnknownEntity, "horse"), "IMP005"},
		{"expired import", ErrImportNotFound, "IMP007"},
		{"manual mapping", fmt.Errorf("%w: rg: column \"RG\" not found", ErrInvalidMapping), "MAP001"},
		{"row date", errors.New(`row 3: invalid date "31/02/2016" for birth_date`), "VAL001"},
		{"no update target", errors.New("row 2: no update target: update mode needs at least one of sire, dam"), "VAL006"},
		{"batch duplicate", errors.New("row 4: duplicate natural key CJCJ/931 (first seen on row 2)"), "REC001"},
		{"store duplicate", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"numeric overflow", errors.New("ERROR: numeric field overflow: value out of range"), "DB002"},
		{"busy", ErrTooManyImports, "RATE001"},
		{"case insensitive", errors.New("DEADLOCK detected"), "DB006"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
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
	got := FormatUserError(ErrEmptyInput)
	want := "There is nothing to import (Code: IMP001). Paste rows or choose a file with data"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrInvalidMapping, true},
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
	if got := NewUserError(nil); got != nil {
		t.Errorf("NewUserError(nil) = %v, want nil", got)
	}

	techErr := fmt.Errorf("persist animal batch: %w", errors.New("dial tcp: connection refused"))
	userErr := NewUserError(techErr)
	if userErr.Error() != "Unable to connect to database" {
		t.Errorf("Error() = %q, want user message", userErr.Error())
	}
	if userErr.User.Code != "DB004" {
		t.Errorf("Code = %q, want DB004", userErr.User.Code)
	}
	if !errors.Is(userErr, techErr) {
		t.Error("Unwrap() should return original error")
	}
}
