// Package fill implements the crossword grid solver: a depth-first
// backtracking search over grid cells, pruned by a trie of admissible
// words and a running used-words set.
package fill

import (
	"fmt"
	"math/rand"
	"sort"

	"dailygrid/internal/domain"
	"dailygrid/internal/puzzle"
	"dailygrid/internal/trie"
)

// Solver fills a single template from a single trie. A Solver instance is
// meant for exactly one Solve call; its *rand.Rand is seeded once at
// construction so candidate orderings are reproducible for a given seed.
type Solver struct {
	trie *trie.Trie
	rng  *rand.Rand
}

// NewSolver returns a Solver drawing randomness from seed. The same seed
// always produces the same sequence of candidate-letter shuffles.
func NewSolver(t *trie.Trie, seed int64) *Solver {
	return &Solver{trie: t, rng: rand.New(rand.NewSource(seed))}
}

// Solve fills tpl using the Solver's trie, returning the completed grid or
// puzzle.ErrUnsolvable if no assignment satisfies every closed run. The
// trie is restored to its exact pre-call state regardless of outcome; a
// mismatch is reported as puzzle.ErrInvariantViolation, which callers
// should treat as fatal.
func (s *Solver) Solve(tpl puzzle.Template) (*puzzle.Grid, error) {
	before := s.trie.Snapshot()

	grid := puzzle.NewGrid(tpl)
	positions := grid.Positions()
	used := make(map[string]struct{})

	ok := s.backtrack(grid, positions, 0, used)
	if ok {
		// A successful search returns with every placed answer still
		// disabled; re-enable them so the trie matches its pre-solve state.
		for w := range used {
			s.trie.Enable(w)
		}
	}

	after := s.trie.Snapshot()
	if !before.Equal(after) {
		return nil, fmt.Errorf("%w: trie state changed across solve", puzzle.ErrInvariantViolation)
	}
	if !ok {
		return nil, puzzle.ErrUnsolvable
	}
	return grid, nil
}

// backtrack fills positions[i:] in place. It returns true on success,
// leaving grid fully filled and used populated with every placed answer;
// on failure it leaves grid and used exactly as it found them.
func (s *Solver) backtrack(grid *puzzle.Grid, positions []domain.Position, i int, used map[string]struct{}) bool {
	if i == len(positions) {
		return true
	}
	r, c := positions[i].Row, positions[i].Col

	rowPrefix := grid.RowPrefix(r, c)
	colPrefix := grid.ColPrefix(r, c)

	across := s.trie.NextLetters(rowPrefix)
	down := s.trie.NextLetters(colPrefix)
	if len(across) == 0 || len(down) == 0 {
		return false
	}

	candidates := intersectSorted(across, down)
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	closeAcross := grid.CompletesAcross(r, c)
	closeDown := grid.CompletesDown(r, c)

	for _, ch := range candidates {
		var wordAcross, wordDown string
		if closeAcross {
			wordAcross = grid.CompletedAcrossWord(r, c, ch)
			if len(wordAcross) >= 2 && !s.trie.IsWord(wordAcross) {
				continue
			}
		}
		if closeDown {
			wordDown = grid.CompletedDownWord(r, c, ch)
			if len(wordDown) >= 2 && !s.trie.IsWord(wordDown) {
				continue
			}
		}

		hasAcrossWord := closeAcross && len(wordAcross) >= 2
		hasDownWord := closeDown && len(wordDown) >= 2
		if hasAcrossWord && hasDownWord && wordAcross == wordDown {
			continue
		}

		var closed []string
		if hasAcrossWord {
			closed = append(closed, wordAcross)
		}
		if hasDownWord {
			closed = append(closed, wordDown)
		}

		if anyUsed(used, closed) {
			continue
		}

		grid.Set(r, c, ch)
		for _, w := range closed {
			s.trie.Disable(w)
			used[w] = struct{}{}
		}

		if s.backtrack(grid, positions, i+1, used) {
			return true
		}

		for _, w := range closed {
			delete(used, w)
			s.trie.Enable(w)
		}
		grid.Clear(r, c)
	}

	return false
}

func anyUsed(used map[string]struct{}, words []string) bool {
	for _, w := range words {
		if _, ok := used[w]; ok {
			return true
		}
	}
	return false
}

// intersectSorted returns the characters present in both sets, in a fixed
// (sorted) order, so that the only source of ordering randomness is the
// Solver's own seeded shuffle rather than Go's randomized map iteration.
func intersectSorted(a, b map[byte]struct{}) []byte {
	var out []byte
	for ch := range a {
		if _, ok := b[ch]; ok {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
