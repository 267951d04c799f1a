package replay

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestMatchAuthor(t *testing.T) {
	options := []string{"Jane Doe", "John Smith", "Editorial Team"}

	testCases := []struct {
		name    string
		author  string
		options []string
		// nearest is informational and depends on an external
		// similarity ranking, so it is only asserted non-empty
		expected Match
	}{
		{
			name:    "exact match",
			author:  "Jane Doe",
			options: options,
			expected: Match{
				Label:    "Jane Doe",
				Exact:    true,
				Original: "Jane Doe",
			},
		},
		{
			name:    "case differs is not exact",
			author:  "jane doe",
			options: options,
			expected: Match{
				Label:    "Editorial Team",
				Exact:    false,
				Original: "jane doe",
			},
		},
		{
			name:    "unknown author falls back",
			author:  "Unknown Contributor",
			options: options,
			expected: Match{
				Label:    "Editorial Team",
				Exact:    false,
				Original: "Unknown Contributor",
			},
		},
		{
			name:    "no options at all",
			author:  "Jane Doe",
			options: nil,
			expected: Match{
				Label:    "Editorial Team",
				Exact:    false,
				Original: "Jane Doe",
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := MatchAuthor(test.author, test.options, "Editorial Team")

			if !got.Exact && len(test.options) > 0 {
				require.NotEmpty(t, got.Nearest)
			}
			got.Nearest = ""

			diff := cmp.Diff(test.expected, got)
			if diff != "" {
				t.Fatal(diff)
			}
		})
	}
}
