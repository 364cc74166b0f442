package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlayerID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  PlayerID
	}{
		{"decimal", "42", 42},
		{"float form", "5.0", 5},
		{"exponent", "12e0", 12},
		{"large", "9007199254740993", 9007199254740993},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParsePlayerID(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestParsePlayerIDRejects(t *testing.T) {
	for _, input := range []string{"", "abc", "0", "-4", "0.0", "5.5", "-2.0", "NaN", "Inf", "1e300"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParsePlayerID(input)
			assert.ErrorIs(t, err, ErrInvalidPlayerID)
		})
	}
}
