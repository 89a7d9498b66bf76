// Package pipeline wires the Daily Dictionary Builder, Trie, Solver, and
// Entry Extractor into a day-by-day generation loop: for every date in a
// requested range it builds the working dictionary, retries the solver
// across a seeded attempt budget, validates the result, and persists the
// board and the rolling history before moving to the next date.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"dailygrid/internal/dictionary"
	"dailygrid/internal/generator/fill"
	"dailygrid/internal/puzzle"
	"dailygrid/internal/store"
	"dailygrid/internal/trie"
	"dailygrid/internal/validate"
)

const (
	historyWindowDays = 100
	defaultAttempts   = 20
	dateLayout        = "2006-01-02"
)

// Outcome records what happened when generating a single date, mirroring
// the GenerationRun.Outcomes vocabulary.
type Outcome string

const (
	OutcomeSolved             Outcome = "solved"
	OutcomeUnsolvable         Outcome = "unsolvable"
	OutcomeTemplateInvalid    Outcome = "template_invalid"
	OutcomeDictionaryEmpty    Outcome = "dictionary_empty"
	OutcomeNoTemplate         Outcome = "no_template_for_weekday"
	OutcomeInvariantViolation Outcome = "invariant_violation"
)

// DateResult is the per-date outcome of one Generator.Run call.
type DateResult struct {
	Date    time.Time
	Outcome Outcome
	Err     error
	Board   *store.BoardRecord
	Entries []puzzle.Entry
}

// Generator drives generation across a date range, persisting results
// through a store.Store and validating every solved grid against the
// section 8 testable properties before accepting it.
type Generator struct {
	Templates  map[time.Weekday]puzzle.Template
	Base       map[string]struct{}
	Exclusions map[string]struct{}
	Store      store.Store
	Attempts   int
	Logger     *slog.Logger

	// Path metadata, recorded verbatim into the GenerationRun observability
	// record; never consulted by generation itself.
	TemplatesPath  string
	WordsPath      string
	ExclusionsPath string
}

// NewGenerator returns a Generator with the spec's 20-attempt default
// budget and 100-day rolling-history window.
func NewGenerator(templates map[time.Weekday]puzzle.Template, base, exclusions map[string]struct{}, st store.Store, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		Templates:  templates,
		Base:       base,
		Exclusions: exclusions,
		Store:      st,
		Attempts:   defaultAttempts,
		Logger:     logger,
	}
}

// Run generates one board per date in [from, to] inclusive, strictly in
// order (the rolling history makes each date depend on the ones before
// it). The window is advanced for every date regardless of outcome,
// matching spec.md section 4.5's always-roll-the-window rule. A
// GenerationRun observability record is persisted once the range
// completes or the run halts.
//
// An InvariantViolation is fatal: it means the solver produced a grid
// that breaks its own correctness properties, which indicates state
// corruption rather than an unsolvable instance. Run stops immediately
// at the offending date instead of continuing to the next one, and
// returns the error so the caller can halt the process.
func (g *Generator) Run(ctx context.Context, from, to time.Time) ([]DateResult, error) {
	attempts := g.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	history, err := g.loadHistory(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("loading rolling history: %w", err)
	}

	startedAt := time.Now().UTC()
	outcomes := make(map[string]string)

	var results []DateResult
	var haltErr error
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, 1) {
		res := g.generateOne(ctx, cur, history, attempts)
		results = append(results, res)
		outcomes[cur.Format(dateLayout)] = string(res.Outcome)

		if res.Outcome == OutcomeInvariantViolation {
			haltErr = res.Err
			break
		}

		dropDate := cur.AddDate(0, 0, -historyWindowDays)
		history.Advance(cur)
		if err := g.Store.History().DropDate(ctx, dropDate.Format(dateLayout)); err != nil {
			g.Logger.Error("failed to drop aged-out history date", "date", dropDate.Format(dateLayout), "error", err)
		}
	}

	run := &store.GenerationRun{
		FromDate:       from.Format(dateLayout),
		ToDate:         to.Format(dateLayout),
		TemplatesPath:  g.TemplatesPath,
		WordsPath:      g.WordsPath,
		ExclusionsPath: g.ExclusionsPath,
		Outcomes:       outcomes,
		StartedAt:      startedAt,
		FinishedAt:     time.Now().UTC(),
	}
	if err := g.Store.Runs().Store(ctx, run); err != nil {
		g.Logger.Error("failed to persist generation run", "error", err)
	}

	if haltErr != nil {
		return results, fmt.Errorf("%w: halting generation run", haltErr)
	}

	return results, nil
}

// loadHistory reconstructs an in-memory RollingHistory from whatever the
// store has persisted for the 100 days preceding from, so a multi-day run
// can resume after a crash without losing sliding-window state.
func (g *Generator) loadHistory(ctx context.Context, from time.Time) (*dictionary.RollingHistory, error) {
	history := dictionary.NewRollingHistory(historyWindowDays)

	windowStart := from.AddDate(0, 0, -historyWindowDays).Format(dateLayout)
	target := from.Format(dateLayout)

	rows, err := g.Store.History().LoadWindow(ctx, windowStart, target)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]string)
	for _, row := range rows {
		byDate[row.Date] = append(byDate[row.Date], row.Word)
	}
	for dateStr, words := range byDate {
		d, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}
		history.Record(d, words)
	}

	return history, nil
}

func (g *Generator) generateOne(ctx context.Context, date time.Time, history *dictionary.RollingHistory, attempts int) DateResult {
	dateStr := date.Format(dateLayout)
	logger := g.Logger.With("date", dateStr)

	tpl, ok := g.Templates[date.Weekday()]
	if !ok {
		logger.Info("skipping date: no template for weekday", "weekday", date.Weekday())
		return DateResult{Date: date, Outcome: OutcomeNoTemplate}
	}

	builder := dictionary.NewBuilder(g.Base, g.Exclusions, history)
	words, err := builder.Build(date, tpl)
	if err != nil {
		logger.Warn("no usable words for date", "error", err)
		return DateResult{Date: date, Outcome: OutcomeDictionaryEmpty, Err: err}
	}

	t := trie.New()
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		t.Add(w)
		wordSet[w] = struct{}{}
	}

	grid, solveErr := g.solveWithRetries(t, tpl, date, attempts, logger)
	if solveErr != nil {
		if errors.Is(solveErr, puzzle.ErrInvariantViolation) {
			logger.Error("trie invariant violated during solve", "error", solveErr)
			return DateResult{Date: date, Outcome: OutcomeInvariantViolation, Err: solveErr}
		}
		logger.Warn("exhausted attempt budget", "attempts", attempts)
		return DateResult{Date: date, Outcome: OutcomeUnsolvable, Err: solveErr}
	}

	entries := puzzle.ExtractEntries(grid)
	if errs := validate.ValidateSolvedGrid(grid, entries, wordSet); len(errs) > 0 {
		err := fmt.Errorf("%w: %s", puzzle.ErrInvariantViolation, errs.Error())
		logger.Error("solved grid failed its own correctness self-check", "errors", errs.Error())
		return DateResult{Date: date, Outcome: OutcomeInvariantViolation, Err: err}
	}

	board := &store.BoardRecord{
		Date:  dateStr,
		Rows:  tpl.Rows,
		Cols:  tpl.Cols,
		Board: grid.Export(),
	}
	if err := g.Store.Boards().Store(ctx, board); err != nil {
		logger.Error("failed to persist board", "error", err)
	}

	answers := make([]string, 0, len(entries))
	for _, e := range entries {
		answers = append(answers, e.Answer)
	}
	history.Record(date, answers)
	if err := g.Store.History().RecordWords(ctx, dateStr, answers); err != nil {
		logger.Error("failed to persist history words", "error", err)
	}

	logger.Info("generated board", "entries", len(entries))
	return DateResult{Date: date, Outcome: OutcomeSolved, Board: board, Entries: entries}
}

// solveWithRetries tries up to attempts seeded solves, stopping at the
// first success or the first InvariantViolation (fatal; retrying cannot
// help). Each attempt's seed is a pure function of the date and attempt
// index, per spec.md section 5.
func (g *Generator) solveWithRetries(t *trie.Trie, tpl puzzle.Template, date time.Time, attempts int, logger *slog.Logger) (*puzzle.Grid, error) {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		solver := fill.NewSolver(t, seedFor(date, attempt))
		grid, err := solver.Solve(tpl)
		if err == nil {
			return grid, nil
		}
		if errors.Is(err, puzzle.ErrInvariantViolation) {
			return nil, err
		}
		lastErr = err
		logger.Debug("attempt failed", "attempt", attempt, "error", err)
	}
	return nil, lastErr
}

// seedFor derives a per-(date, attempt) seed: the FNV-1a hash of the
// date's ISO form, XORed with the attempt index, masked to 32 bits. This
// mirrors the reference implementation's (hash(iso(date)) ^ attempt) &
// 0xFFFFFFFF convention, giving reproducible but attempt-distinct
// candidate orderings.
func seedFor(date time.Time, attempt int) int64 {
	h := fnv.New32a()
	h.Write([]byte(date.Format(dateLayout)))
	return int64(h.Sum32() ^ uint32(attempt))
}
