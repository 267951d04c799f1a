package replay

import (
	"github.com/antzucaro/matchr"
)

// Match is the outcome of resolving a free-text author against the
// destination's enumerated options.
type Match struct {
	// Label is the option to select, exact or fallback.
	Label string
	// Exact reports whether Label matched the source author verbatim.
	Exact bool
	// Original is the free-text author as found on the source.
	Original string
	// Nearest is the closest option by string similarity, recorded on
	// fallback to make manual correction easier. Informational only.
	Nearest string
}

// MatchAuthor resolves author against options. An exact case-sensitive
// match wins; otherwise the fixed fallback is chosen so publication
// never stalls on an unmapped author. It never fails.
func MatchAuthor(author string, options []string, fallback string) Match {
	for _, option := range options {
		if option == author {
			return Match{
				Label:    option,
				Exact:    true,
				Original: author,
			}
		}
	}

	var nearest string
	var nearestSimilarity float64
	for _, option := range options {
		similarity := matchr.JaroWinkler(author, option, false)
		if similarity > nearestSimilarity {
			nearestSimilarity = similarity
			nearest = option
		}
	}

	return Match{
		Label:    fallback,
		Exact:    false,
		Original: author,
		Nearest:  nearest,
	}
}
