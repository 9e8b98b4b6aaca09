package testutil

import (
	"errors"
	"testing"

	apperrors "budgeteer/internal/errors"
)

// AssertAppError fails the test unless err unwraps to an *AppError carrying
// the given code. The message is included on mismatch since sentinels share
// codes but WithMessage rewrites the text.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	if err == nil {
		t.Fatalf("want AppError %q, got no error", code)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("want AppError %q, got %T: %v", code, err, err)
	}
	if appErr.Code != code {
		t.Errorf("want error code %q, got %q (%s)", code, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test immediately when err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
