package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	boards  *sqliteBoardRepo
	history *sqliteHistoryRepo
	runs    *sqliteRunRepo
}

// NewSQLiteStore creates a new SQLite store.
// Use ":memory:" for in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if !strings.Contains(dsn, ":memory:") {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	store := &SQLiteStore{db: db}
	store.boards = &sqliteBoardRepo{db: db}
	store.history = &sqliteHistoryRepo{db: db}
	store.runs = &sqliteRunRepo{db: db}

	return store, nil
}

// Boards returns the board-record repository.
func (s *SQLiteStore) Boards() BoardRepository { return s.boards }

// History returns the rolling-history repository.
func (s *SQLiteStore) History() HistoryRepository { return s.history }

// Runs returns the generation-run repository.
func (s *SQLiteStore) Runs() RunRepository { return s.runs }

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	upSQL, err := migrationsFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		return fmt.Errorf("failed to read migration: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("failed to run migration: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteBoardRepo implements BoardRepository for SQLite.
type sqliteBoardRepo struct {
	db *sql.DB
}

func (r *sqliteBoardRepo) Store(ctx context.Context, b *BoardRecord) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(b.Board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO board_records (id, date, rows, cols, board, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			rows = excluded.rows,
			cols = excluded.cols,
			board = excluded.board,
			created_at = excluded.created_at
	`, b.ID, b.Date, b.Rows, b.Cols, payload, b.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to store board record: %w", err)
	}

	return nil
}

func (r *sqliteBoardRepo) scanOne(row *sql.Row) (*BoardRecord, error) {
	var b BoardRecord
	var payload []byte

	err := row.Scan(&b.ID, &b.Date, &b.Rows, &b.Cols, &payload, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board record: %w", err)
	}

	if err := json.Unmarshal(payload, &b.Board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	return &b, nil
}

func (r *sqliteBoardRepo) Get(ctx context.Context, id string) (*BoardRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, rows, cols, board, created_at FROM board_records WHERE id = ?
	`, id)
	return r.scanOne(row)
}

func (r *sqliteBoardRepo) GetByDate(ctx context.Context, date string) (*BoardRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, rows, cols, board, created_at FROM board_records WHERE date = ?
	`, date)
	return r.scanOne(row)
}

func (r *sqliteBoardRepo) List(ctx context.Context, filter BoardFilter) ([]*BoardSummary, error) {
	query := `SELECT id, date, rows, cols, created_at FROM board_records WHERE 1=1`
	args := []interface{}{}

	if filter.FromDate != "" {
		query += " AND date >= ?"
		args = append(args, filter.FromDate)
	}
	if filter.ToDate != "" {
		query += " AND date <= ?"
		args = append(args, filter.ToDate)
	}

	query += " ORDER BY date ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list board records: %w", err)
	}
	defer rows.Close()

	var boards []*BoardSummary
	for rows.Next() {
		var b BoardSummary
		if err := rows.Scan(&b.ID, &b.Date, &b.Rows, &b.Cols, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan board record: %w", err)
		}
		boards = append(boards, &b)
	}

	return boards, rows.Err()
}

func (r *sqliteBoardRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM board_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// sqliteHistoryRepo implements HistoryRepository for SQLite.
type sqliteHistoryRepo struct {
	db *sql.DB
}

func (r *sqliteHistoryRepo) RecordWords(ctx context.Context, date string, words []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history_words WHERE date = ?`, date); err != nil {
		return fmt.Errorf("failed to clear history for date: %w", err)
	}

	for _, w := range words {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO history_words (date, word) VALUES (?, ?)
			ON CONFLICT(date, word) DO NOTHING
		`, date, w); err != nil {
			return fmt.Errorf("failed to record history word: %w", err)
		}
	}

	return tx.Commit()
}

func (r *sqliteHistoryRepo) DropDate(ctx context.Context, date string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM history_words WHERE date = ?`, date)
	if err != nil {
		return fmt.Errorf("failed to drop history date: %w", err)
	}
	return nil
}

func (r *sqliteHistoryRepo) LoadWindow(ctx context.Context, windowStart, target string) ([]HistoryWord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, word FROM history_words WHERE date >= ? AND date < ? ORDER BY date ASC
	`, windowStart, target)
	if err != nil {
		return nil, fmt.Errorf("failed to load history window: %w", err)
	}
	defer rows.Close()

	var words []HistoryWord
	for rows.Next() {
		var w HistoryWord
		if err := rows.Scan(&w.Date, &w.Word); err != nil {
			return nil, fmt.Errorf("failed to scan history word: %w", err)
		}
		words = append(words, w)
	}

	return words, rows.Err()
}

// sqliteRunRepo implements RunRepository for SQLite.
type sqliteRunRepo struct {
	db *sql.DB
}

func (r *sqliteRunRepo) Store(ctx context.Context, run *GenerationRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	outcomes, err := json.Marshal(run.Outcomes)
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO generation_runs
			(id, from_date, to_date, templates_path, words_path, exclusions_path, outcomes, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.FromDate, run.ToDate, run.TemplatesPath, run.WordsPath, run.ExclusionsPath,
		outcomes, run.StartedAt, run.FinishedAt)

	if err != nil {
		return fmt.Errorf("failed to store generation run: %w", err)
	}

	return nil
}

func (r *sqliteRunRepo) List(ctx context.Context, limit int) ([]*GenerationRun, error) {
	query := `
		SELECT id, from_date, to_date, templates_path, words_path, exclusions_path, outcomes, started_at, finished_at
		FROM generation_runs ORDER BY started_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation runs: %w", err)
	}
	defer rows.Close()

	var runs []*GenerationRun
	for rows.Next() {
		var run GenerationRun
		var exclusionsPath sql.NullString
		var outcomes []byte
		if err := rows.Scan(&run.ID, &run.FromDate, &run.ToDate, &run.TemplatesPath, &run.WordsPath,
			&exclusionsPath, &outcomes, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation run: %w", err)
		}
		run.ExclusionsPath = exclusionsPath.String
		if err := json.Unmarshal(outcomes, &run.Outcomes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcomes: %w", err)
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}
