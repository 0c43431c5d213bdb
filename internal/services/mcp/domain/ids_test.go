package domain

import (
	"errors"
	"testing"
)

func TestValidateSequenceID(t *testing.T) {
	valid := []string{"A000045", "A000001", "A1234567"}
	for _, id := range valid {
		t.Run("valid "+id, func(t *testing.T) {
			if err := ValidateSequenceID(id); err != nil {
				t.Errorf("unexpected error for %q: %v", id, err)
			}
		})
	}

	invalid := []string{"", "A12345", "000045", "a000045", "A00004x", "B000045", " A000045"}
	for _, id := range invalid {
		t.Run("invalid "+id, func(t *testing.T) {
			err := ValidateSequenceID(id)
			if err == nil {
				t.Fatalf("expected error for %q", id)
			}
			var domainErr *Error
			if !errors.As(err, &domainErr) || domainErr.Kind != InvalidParams {
				t.Errorf("expected InvalidParams, got %v", err)
			}
		})
	}
}
