package dictionary

import (
	"fmt"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"dailygrid/internal/puzzle"
)

// Builder composes the working dictionary for a single date from a base
// curated word set, a permanent exclusion set, and a RollingHistory.
type Builder struct {
	base       map[string]struct{}
	exclusions map[string]struct{}
	history    *RollingHistory
}

// NewBuilder returns a Builder over base and exclusions, tracking repeats
// via history.
func NewBuilder(base, exclusions map[string]struct{}, history *RollingHistory) *Builder {
	return &Builder{base: base, exclusions: exclusions, history: history}
}

// Build returns the sorted working word list for date against tpl: base
// words, minus exclusions, minus the rolling-history union, filtered to
// the template's admissible length range and to lowercase-alphabetic
// words. The result is sorted for deterministic trie construction order.
// Returns puzzle.ErrDictionaryEmpty if nothing survives the filters.
func (b *Builder) Build(date time.Time, tpl puzzle.Template) ([]string, error) {
	previouslyUsed := b.history.PreviouslyUsed(date)
	maxLen := tpl.MaxWordLength()

	working := make(map[string]struct{})
	for w := range b.base {
		if _, excluded := b.exclusions[w]; excluded {
			continue
		}
		if _, used := previouslyUsed[w]; used {
			continue
		}
		if !isLowerAlpha(w) {
			continue
		}
		if len(w) < 2 || len(w) > maxLen {
			continue
		}
		working[w] = struct{}{}
	}

	if len(working) == 0 {
		return nil, fmt.Errorf("%w: no admissible words for a %dx%d template on %s",
			puzzle.ErrDictionaryEmpty, tpl.Rows, tpl.Cols, date.Format(dateLayout))
	}

	words := maps.Keys(working)
	slices.Sort(words)
	return words, nil
}

func isLowerAlpha(w string) bool {
	if w == "" {
		return false
	}
	for i := 0; i < len(w); i++ {
		c := w[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
