package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allErrors = []error{
	ErrNotFound,
	ErrInvalidInput,
	ErrJoinMiss,
	ErrMalformedDate,
	ErrNoPendingRun,
	ErrTracedFileNotFound,
	ErrAlreadyReconciled,
	ErrRadarUnavailable,
	ErrRegistryUnavailable,
}

// TestErrors_Uniqueness tests that all errors are distinct
func TestErrors_Uniqueness(t *testing.T) {
	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j {
				assert.False(t, errors.Is(err1, err2),
					"Error %v should not match error %v", err1, err2)
			}
		}
	}
}

func TestErrors_ErrorMessages(t *testing.T) {
	tests := []struct {
		err        error
		shouldHave []string
	}{
		{ErrNotFound, []string{"not", "found"}},
		{ErrInvalidInput, []string{"invalid", "input"}},
		{ErrJoinMiss, []string{"no matching audit row"}},
		{ErrMalformedDate, []string{"malformed", "date"}},
		{ErrNoPendingRun, []string{"extracted run"}},
		{ErrTracedFileNotFound, []string{"traced file"}},
		{ErrRadarUnavailable, []string{"radar", "unavailable"}},
		{ErrRegistryUnavailable, []string{"registry", "unavailable"}},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			for _, word := range tt.shouldHave {
				assert.Contains(t, tt.err.Error(), word)
			}
		})
	}
}

// TestErrors_WithWrapping tests error wrapping behavior
func TestErrors_WithWrapping(t *testing.T) {
	wrapped := fmt.Errorf("collect traced file: %w", ErrTracedFileNotFound)

	assert.True(t, errors.Is(wrapped, ErrTracedFileNotFound))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}

func TestJoinFailure_Err(t *testing.T) {
	f := JoinFailure{Line: 7, Identifier: "12345", Reason: "no audit row"}

	err := f.Err()

	assert.ErrorIs(t, err, ErrJoinMiss)
	assert.Contains(t, err.Error(), `traced line 7 (patient "12345"): no audit row`)
}
