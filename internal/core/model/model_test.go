package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, c := range AllCategories {
		parsed, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseCategory("network")
	assert.Error(t, err)
}

func TestEffectiveEnd(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Second)

	withEnd := TimedEvent{Start: start, End: end}
	assert.Equal(t, end, withEnd.EffectiveEnd())

	withoutEnd := TimedEvent{Start: start}
	assert.Equal(t, start, withoutEnd.EffectiveEnd())
}

func TestErrorCodes(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := Upstreamf(inner, "instance unreachable")

	assert.Equal(t, CodeUpstream, CodeOf(err))
	assert.ErrorIs(t, err, inner)

	wrapped := fmt.Errorf("trends failed: %w", err)
	assert.Equal(t, CodeUpstream, CodeOf(wrapped))

	var coded *Error
	require.True(t, errors.As(wrapped, &coded))
	assert.Contains(t, coded.Message, "unreachable")

	assert.Equal(t, Code(""), CodeOf(fmt.Errorf("plain")))
}

func TestInvalidInputf(t *testing.T) {
	err := InvalidInputf("expected 2-10 ids, got %d", 11)
	assert.Equal(t, CodeInvalidInput, CodeOf(err))
	assert.Contains(t, err.Error(), "INVALID_INPUT")
	assert.Contains(t, err.Error(), "got 11")
}
