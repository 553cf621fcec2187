package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSnowTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "valid datetime",
			input: "2025-03-01 12:30:45",
			want:  time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC),
		},
		{
			name:  "surrounding whitespace",
			input: "  2025-03-01 12:30:45 ",
			want:  time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC),
		},
		{
			name:  "empty",
			input: "",
			want:  time.Time{},
		},
		{
			name:  "malformed",
			input: "03/01/2025",
			want:  time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSnowTime(tt.input))
		})
	}
}

func TestFormatSnowTimeRoundTrip(t *testing.T) {
	orig := time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, orig, ParseSnowTime(FormatSnowTime(orig)))
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"12.5", 12.5, true},
		{"0", 0, true},
		{"1,234.5", 1234.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-3", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseSeconds(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "12.34s", FormatSeconds(12.34))
	assert.Equal(t, "90.00s (1.50 min)", FormatSeconds(90))
}
