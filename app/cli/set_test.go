package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected any
		expErr   string
	}{
		{name: "int", input: `42`, expected: int64(42)},
		{name: "negative", input: `-7`, expected: int64(-7)},
		{name: "float", input: `2.5`, expected: 2.5},
		{name: "exponent", input: `1e3`, expected: 1000.0},
		{name: "string", input: `"42"`, expected: "42"},
		{name: "null", input: `null`, expected: nil},
		{name: "surrounding_space", input: " \n{\"a\": 1}\t\n", expected: map[string]any{"a": int64(1)}},
		{
			name:     "nested",
			input:    `{"a": [1, 2.5, {"b": 3}], "c": true}`,
			expected: map[string]any{"a": []any{int64(1), 2.5, map[string]any{"b": int64(3)}}, "c": true},
		},
		{name: "trailing_value", input: `1 2`, expErr: "failed parsing value as JSON: trailing data after value"},
		{name: "trailing_brace", input: `{"a":1}}`, expErr: "failed parsing value as JSON: trailing data after value"},
		{name: "trailing_bracket", input: `[1]]`, expErr: "failed parsing value as JSON: trailing data after value"},
		{name: "trailing_comma", input: `"x",`, expErr: "failed parsing value as JSON: trailing data after value"},
		{name: "unterminated", input: `{"a": 1`, expErr: "failed parsing value as JSON: unexpected EOF"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v, err := parseJSON(tc.input)
			if tc.expErr != "" {
				assert.EqualError(t, err, tc.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}
