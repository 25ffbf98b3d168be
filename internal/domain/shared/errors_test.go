package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	custom := NewDomainError("INVALID_INPUT", "Term must be greater than zero")

	assert.True(t, errors.Is(custom, ErrInvalidInput))
	assert.True(t, errors.Is(fmt.Errorf("simulate: %w", custom), ErrInvalidInput))
	assert.False(t, errors.Is(custom, ErrNotFound))
	assert.False(t, errors.Is(errors.New("INVALID_INPUT"), ErrInvalidInput))
}

func TestDomainError_WithField(t *testing.T) {
	withField := ErrInvalidInput.WithField("term")

	assert.Equal(t, "term", withField.Field)
	assert.Empty(t, ErrInvalidInput.Field, "sentinel must not be mutated")
	assert.Equal(t, ErrInvalidInput.Message, withField.Error())
	assert.ErrorIs(t, withField, ErrInvalidInput)
}
