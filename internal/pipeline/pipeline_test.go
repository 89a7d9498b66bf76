package pipeline

import (
	"context"
	"testing"
	"time"

	"dailygrid/internal/domain"
	"dailygrid/internal/puzzle"
	"dailygrid/internal/store"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func weekdayOf(t *testing.T, s string) time.Weekday {
	return mustDate(t, s).Weekday()
}

func TestGenerator_SolvesAndPersistsBoard(t *testing.T) {
	date := mustDate(t, "2026-01-05") // a Monday
	templates := map[time.Weekday]puzzle.Template{
		weekdayOf(t, "2026-01-05"): mustTemplate(t, 2, 2, nil),
	}
	base := map[string]struct{}{"it": {}, "os": {}, "io": {}, "ts": {}}
	st := store.NewMemoryStore()

	gen := NewGenerator(templates, base, nil, st, nil)
	results, err := gen.Run(context.Background(), date, date)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Outcome != OutcomeSolved {
		t.Fatalf("expected OutcomeSolved, got %v (err=%v)", results[0].Outcome, results[0].Err)
	}
	if len(results[0].Entries) != 4 {
		t.Errorf("expected 4 entries (2 across + 2 down), got %d", len(results[0].Entries))
	}

	board, err := st.Boards().GetByDate(context.Background(), "2026-01-05")
	if err != nil {
		t.Fatalf("expected board to be persisted: %v", err)
	}
	if board.Rows != 2 || board.Cols != 2 {
		t.Errorf("persisted board dims = %dx%d, want 2x2", board.Rows, board.Cols)
	}
}

func TestGenerator_NoTemplateForWeekday(t *testing.T) {
	date := mustDate(t, "2026-01-05")
	templates := map[time.Weekday]puzzle.Template{} // no templates at all
	st := store.NewMemoryStore()

	gen := NewGenerator(templates, map[string]struct{}{"it": {}}, nil, st, nil)
	results, err := gen.Run(context.Background(), date, date)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results[0].Outcome != OutcomeNoTemplate {
		t.Errorf("expected OutcomeNoTemplate, got %v", results[0].Outcome)
	}
}

func TestGenerator_DictionaryEmptyOutcome(t *testing.T) {
	date := mustDate(t, "2026-01-05")
	templates := map[time.Weekday]puzzle.Template{
		weekdayOf(t, "2026-01-05"): mustTemplate(t, 3, 3, nil),
	}
	base := map[string]struct{}{"z": {}} // too short to be admissible (len < 2)
	st := store.NewMemoryStore()

	gen := NewGenerator(templates, base, nil, st, nil)
	results, err := gen.Run(context.Background(), date, date)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results[0].Outcome != OutcomeDictionaryEmpty {
		t.Errorf("expected OutcomeDictionaryEmpty, got %v", results[0].Outcome)
	}
}

// S6-shaped: a word placed 50 days before a later generation date must be
// excluded from that date even though it remains in the base dictionary.
func TestGenerator_RollingHistoryExcludesRecentWord(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	earlier := mustDate(t, "2026-01-01")
	if err := st.History().RecordWords(ctx, earlier.Format(dateLayout), []string{"it"}); err != nil {
		t.Fatalf("seeding history: %v", err)
	}

	target := earlier.AddDate(0, 0, 50)
	templates := map[time.Weekday]puzzle.Template{
		target.Weekday(): mustTemplate(t, 2, 2, nil),
	}
	base := map[string]struct{}{"it": {}, "is": {}, "io": {}, "ts": {}}

	gen := NewGenerator(templates, base, nil, st, nil)
	results, err := gen.Run(ctx, target, target)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, e := range results[0].Entries {
		if e.Answer == "it" {
			t.Error("'it' was placed 50 days prior and should still be excluded")
		}
	}
}

func TestGenerator_PersistsGenerationRun(t *testing.T) {
	ctx := context.Background()
	date := mustDate(t, "2026-01-05")
	templates := map[time.Weekday]puzzle.Template{
		date.Weekday(): mustTemplate(t, 2, 2, nil),
	}
	base := map[string]struct{}{"it": {}, "os": {}, "io": {}, "ts": {}}
	st := store.NewMemoryStore()

	gen := NewGenerator(templates, base, nil, st, nil)
	gen.TemplatesPath = "templates.txt"
	gen.WordsPath = "words.txt"
	if _, err := gen.Run(ctx, date, date); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	runs, err := st.Runs().List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 generation run, got %d", len(runs))
	}
	if runs[0].Outcomes["2026-01-05"] != string(OutcomeSolved) {
		t.Errorf("expected solved outcome recorded, got %+v", runs[0].Outcomes)
	}
	if runs[0].TemplatesPath != "templates.txt" {
		t.Errorf("expected templates path recorded, got %q", runs[0].TemplatesPath)
	}
}

func mustTemplate(t *testing.T, rows, cols int, blocked []domain.Position) puzzle.Template {
	t.Helper()
	tpl, err := puzzle.NewTemplate(rows, cols, blocked)
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}
	return tpl
}
