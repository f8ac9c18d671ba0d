package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrInvalidConfiguration", ErrInvalidConfiguration},
		{"ErrInvalidArgument", ErrInvalidArgument},
		{"ErrIndexNotFound", ErrIndexNotFound},
		{"ErrIndexFormat", ErrIndexFormat},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrEmbedding", ErrEmbedding},
		{"ErrGeneration", ErrGeneration},
		{"ErrSessionEnded", ErrSessionEnded},
		{"ErrNoContent", ErrNoContent},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrUnsupportedType", ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrIndexNotFound, ErrIndexFormat))
	assert.False(t, errors.Is(ErrEmbedding, ErrGeneration))
	assert.False(t, errors.Is(ErrInvalidArgument, ErrInvalidConfiguration))
}

func TestErrors_Wrapping(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrInvalidConfiguration, ErrDimensionMismatch)

	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.NotErrorIs(t, err, ErrIndexFormat)
}
