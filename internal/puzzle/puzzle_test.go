package puzzle

import (
	"errors"
	"testing"

	"dailygrid/internal/domain"
)

func TestNewTemplateValidation(t *testing.T) {
	if _, err := NewTemplate(0, 3, nil); !errors.Is(err, ErrTemplateInvalid) {
		t.Error("non-positive rows should be TemplateInvalid")
	}
	if _, err := NewTemplate(3, 3, []domain.Position{{Row: 5, Col: 0}}); !errors.Is(err, ErrTemplateInvalid) {
		t.Error("out-of-range blocked cell should be TemplateInvalid")
	}
	tpl, err := NewTemplate(3, 3, []domain.Position{{Row: 1, Col: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tpl.IsBlocked(1, 1) {
		t.Error("expected (1,1) to be blocked")
	}
	if tpl.MaxWordLength() != 3 {
		t.Errorf("MaxWordLength() = %d, want 3", tpl.MaxWordLength())
	}
}

func TestRowColPrefix(t *testing.T) {
	tpl, _ := NewTemplate(2, 2, nil)
	g := NewGrid(tpl)

	if g.RowPrefix(0, 0) != "" {
		t.Error("row prefix at the start of a row must be empty")
	}

	g.Set(0, 0, 'i')
	if g.RowPrefix(0, 1) != "i" {
		t.Errorf("RowPrefix(0,1) = %q, want %q", g.RowPrefix(0, 1), "i")
	}
	if g.ColPrefix(1, 0) != "i" {
		t.Errorf("ColPrefix(1,0) = %q, want %q", g.ColPrefix(1, 0), "i")
	}
}

func TestRowPrefixStopsAtEmptyCell(t *testing.T) {
	tpl, _ := NewTemplate(1, 4, nil)
	g := NewGrid(tpl)
	g.Set(0, 0, 'a')
	// (0,1) left empty
	g.Set(0, 2, 'b')

	// Scanning left from (0,3) picks up 'b' at (0,2), then stops at the
	// empty (0,1) without reaching 'a'.
	if g.RowPrefix(0, 3) != "b" {
		t.Errorf("RowPrefix should stop scanning at the first empty cell, got %q", g.RowPrefix(0, 3))
	}
}

func TestCompletesAcrossDown(t *testing.T) {
	tpl, _ := NewTemplate(3, 3, []domain.Position{{Row: 1, Col: 1}})
	g := NewGrid(tpl)

	if !g.CompletesAcross(0, 2) {
		t.Error("last column must complete across")
	}
	if g.CompletesAcross(0, 0) {
		t.Error("first column of a 3-wide row must not complete across")
	}
	if !g.CompletesDown(2, 0) {
		t.Error("last row must complete down")
	}
}

func TestCompletedWords(t *testing.T) {
	tpl, _ := NewTemplate(1, 3, nil)
	g := NewGrid(tpl)
	g.Set(0, 0, 'c')
	g.Set(0, 1, 'a')

	word := g.CompletedAcrossWord(0, 2, 't')
	if word != "cat" {
		t.Errorf("CompletedAcrossWord = %q, want %q", word, "cat")
	}
}

func TestExportUppercasesAndNullsBlocked(t *testing.T) {
	tpl, _ := NewTemplate(1, 2, []domain.Position{{Row: 0, Col: 1}})
	g := NewGrid(tpl)
	g.Set(0, 0, 'x')

	out := g.Export()
	if out[0][0] == nil || *out[0][0] != "X" {
		t.Errorf("expected uppercase X, got %v", out[0][0])
	}
	if out[0][1] != nil {
		t.Error("expected blocked cell to export as nil")
	}
}

func TestExtractEntriesOrderingAndMinLength(t *testing.T) {
	// 2x2, no blocks, fully filled:
	// i t
	// o s
	tpl, _ := NewTemplate(2, 2, nil)
	g := NewGrid(tpl)
	g.Set(0, 0, 'i')
	g.Set(0, 1, 't')
	g.Set(1, 0, 'o')
	g.Set(1, 1, 's')

	entries := ExtractEntries(g)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d: %+v", len(entries), entries)
	}

	want := []Entry{
		{Direction: domain.DirectionAcross, StartRow: 0, StartCol: 0, Length: 2, Answer: "it"},
		{Direction: domain.DirectionAcross, StartRow: 1, StartCol: 0, Length: 2, Answer: "os"},
		{Direction: domain.DirectionDown, StartRow: 0, StartCol: 0, Length: 2, Answer: "io"},
		{Direction: domain.DirectionDown, StartRow: 0, StartCol: 1, Length: 2, Answer: "ts"},
	}
	for i, w := range want {
		if entries[i] != w {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], w)
		}
	}
}

func TestExtractEntriesSkipsIsolatedCells(t *testing.T) {
	// 1x3 with the middle cell blocked: two isolated length-1 cells, no entries.
	tpl, _ := NewTemplate(1, 3, []domain.Position{{Row: 0, Col: 1}})
	g := NewGrid(tpl)
	g.Set(0, 0, 'a')
	g.Set(0, 2, 'b')

	entries := ExtractEntries(g)
	if len(entries) != 0 {
		t.Errorf("expected no entries from isolated cells, got %+v", entries)
	}
}

func TestExtractEntriesSingleBlockedCellProducesFourLength3Entries(t *testing.T) {
	tpl, _ := NewTemplate(3, 3, []domain.Position{{Row: 1, Col: 1}})
	g := NewGrid(tpl)
	letters := [][]byte{
		{'a', 'b', 'c'},
		{'d', 0, 'e'},
		{'f', 'g', 'h'},
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if letters[r][c] != 0 {
				g.Set(r, c, letters[r][c])
			}
		}
	}

	entries := ExtractEntries(g)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d: %+v", len(entries), entries)
	}
	for _, e := range entries {
		if e.Length != 3 {
			t.Errorf("expected length 3 entries, got %+v", e)
		}
	}
}
