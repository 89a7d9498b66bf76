// Command generate fills crossword boards day by day over a date range and
// writes the results as newline-delimited JSON.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"

	"dailygrid/internal/pipeline"
	"dailygrid/internal/puzzle"
	"dailygrid/internal/store"
	"dailygrid/internal/validate"
)

const dateLayout = "2006-01-02"

func main() {
	_ = godotenv.Load()

	var (
		templatesPath  = flag.String("templates", envOr("TEMPLATES_PATH", "templates.txt"), "Path to the weekday template file")
		wordsPath      = flag.String("words", envOr("WORDS_PATH", "words.txt"), "Path to the base word list")
		exclusionsPath = flag.String("exclusions", envOr("EXCLUSIONS_PATH", ""), "Path to a permanent word exclusion list (optional)")
		dbPath         = flag.String("db", envOr("DATABASE_PATH", ":memory:"), "SQLite database path")
		from           = flag.String("from", time.Now().Format(dateLayout), "First date to generate (YYYY-MM-DD)")
		to             = flag.String("to", "", "Last date to generate, inclusive (default: same as -from)")
		out            = flag.String("out", "", "Output NDJSON file (default: stdout)")
		attempts       = flag.Int("attempts", 20, "Solver attempt budget per date")
		verbose        = flag.Bool("verbose", false, "Verbose progress output")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	fromDate, err := time.Parse(dateLayout, *from)
	if err != nil {
		logger.Error("invalid -from date", "error", err)
		os.Exit(1)
	}
	toDate := fromDate
	if *to != "" {
		toDate, err = time.Parse(dateLayout, *to)
		if err != nil {
			logger.Error("invalid -to date", "error", err)
			os.Exit(1)
		}
	}
	if toDate.Before(fromDate) {
		logger.Error("-to date precedes -from date", "from", *from, "to", *to)
		os.Exit(1)
	}

	templatesFile, err := os.Open(*templatesPath)
	if err != nil {
		logger.Error("failed to open templates file", "error", err)
		os.Exit(1)
	}
	defer templatesFile.Close()
	templates, err := puzzle.ParseTemplates(templatesFile)
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	wordsFile, err := os.Open(*wordsPath)
	if err != nil {
		logger.Error("failed to open word list", "error", err)
		os.Exit(1)
	}
	defer wordsFile.Close()
	base, err := puzzle.LoadWordList(wordsFile)
	if err != nil {
		logger.Error("failed to load word list", "error", err)
		os.Exit(1)
	}

	var exclusions map[string]struct{}
	if *exclusionsPath != "" {
		exclusionsFile, err := os.Open(*exclusionsPath)
		if err != nil {
			logger.Error("failed to open exclusions file", "error", err)
			os.Exit(1)
		}
		defer exclusionsFile.Close()
		exclusions, err = puzzle.LoadExclusions(exclusionsFile)
		if err != nil {
			logger.Error("failed to load exclusions", "error", err)
			os.Exit(1)
		}
	}

	db, err := store.NewSQLiteStore(*dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(context.Background()); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Error("failed to create output file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	writer := bufio.NewWriter(w)
	defer writer.Flush()

	progress := *verbose && isatty.IsTerminal(os.Stderr.Fd())

	gen := pipeline.NewGenerator(templates, base, exclusions, db, logger)
	gen.Attempts = *attempts
	gen.TemplatesPath = *templatesPath
	gen.WordsPath = *wordsPath
	gen.ExclusionsPath = *exclusionsPath

	start := time.Now()
	results, err := gen.Run(context.Background(), fromDate, toDate)
	if err != nil {
		logger.Error("generation run failed", "error", err)
		os.Exit(1)
	}

	solved := 0
	failed := false
	for _, res := range results {
		if progress {
			label := strftime.Format("%A %Y-%m-%d", res.Date)
			fmt.Fprintf(os.Stderr, "%s: %s\n", label, res.Outcome)
		}
		if res.Outcome == pipeline.OutcomeTemplateInvalid || res.Outcome == pipeline.OutcomeDictionaryEmpty {
			failed = true
		}
		if res.Outcome != pipeline.OutcomeSolved {
			continue
		}
		solved++
		if err := writeBoard(writer, res.Board); err != nil {
			logger.Error("failed to write board record", "error", err)
		}
		for _, e := range res.Entries {
			if err := writeEntry(writer, res.Board.Date, e); err != nil {
				logger.Error("failed to write entry record", "error", err)
			}
		}
	}

	logger.Info("generation finished",
		"dates", len(results),
		"solved", solved,
		"elapsed", humanize.RelTime(start, time.Now(), "", ""),
	)

	if failed {
		os.Exit(1)
	}
}

func writeBoard(w *bufio.Writer, b *store.BoardRecord) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if errs := validate.ValidateBoardRecordJSON(data); len(errs) > 0 {
		return fmt.Errorf("board record failed schema validation: %s", errs.Error())
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

type entryRecord struct {
	Date      string `json:"date"`
	Clue      string `json:"clue"`
	Direction string `json:"direction"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
}

func writeEntry(w *bufio.Writer, date string, e puzzle.Entry) error {
	rec := entryRecord{
		Date:      date,
		Clue:      "",
		Direction: string(e.Direction),
		Row:       e.StartRow,
		Col:       e.StartCol,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if errs := validate.ValidateEntryRecordJSON(data); len(errs) > 0 {
		return fmt.Errorf("entry record failed schema validation: %s", errs.Error())
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
