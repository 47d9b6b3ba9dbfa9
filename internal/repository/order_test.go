package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrder(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tests := []struct {
			name     string
			value    string
			expected []Order
		}{
			{"empty", "", nil},
			{"column only", "email", []Order{{Column: "email"}}},
			{"with direction", "email:desc", []Order{{Column: "email", Direction: Desc}}},
			{
				name:  "several",
				value: "name:ASC, id:desc",
				expected: []Order{
					{Column: "name", Direction: Asc},
					{Column: "id", Direction: Desc},
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := ParseOrder(tt.value)

				require.NoError(t, err)
				require.Equal(t, tt.expected, got)
			})
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, value := range []string{"email:up", ":asc", "id,,email"} {
			_, err := ParseOrder(value)
			require.Error(t, err, "value %q should not be parsed", value)
		}
	})
}
