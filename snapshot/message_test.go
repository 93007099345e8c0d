package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderLogMessage(t *testing.T) {
	tests := []struct {
		template string
		values   []string
		expected string
	}{
		{"Hello $0, you have $$5", []string{"World"}, "Hello World, you have $5"},
		{"Hi $1", []string{"a"}, "Hi "},
		{"$0$1", []string{"a", "b"}, "ab"},
		{"$10 items", []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "ten"}, "ten items"},
		{"no placeholders", nil, "no placeholders"},
		{"cost: $", nil, "cost: $"},
		{"$$0", []string{"x"}, "$0"},
		{"$$$0", []string{"x"}, "$$0"},
		{"value=$0", []string{"$$1"}, "value=$$1"},
		{"$0 and $0", []string{"twice"}, "twice and twice"},
		{"$99999999999999999999", []string{"x"}, ""},
		{"", []string{"x"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			require.Equal(t, tt.expected, RenderLogMessage(tt.template, tt.values))
		})
	}
}
