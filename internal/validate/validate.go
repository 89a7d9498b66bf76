// Package validate checks exported board records and entry lists: JSON
// schema conformance for the wire format, and the solver's own
// correctness properties (every run is a dictionary word, no duplicate
// answers, full non-isolated-cell coverage) as a defense-in-depth
// self-check before anything is written out.
package validate

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"dailygrid/internal/domain"
	"dailygrid/internal/puzzle"
)

//go:embed schemas/*.json
var schemasFS embed.FS

var (
	boardRecordSchema *jsonschema.Schema
	entryRecordSchema *jsonschema.Schema
)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	boardData, err := schemasFS.ReadFile("schemas/board_record.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to read board record schema: %v", err))
	}
	if err := compiler.AddResource("board_record.schema.json", strings.NewReader(string(boardData))); err != nil {
		panic(fmt.Sprintf("failed to add board record schema: %v", err))
	}
	boardRecordSchema, err = compiler.Compile("board_record.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile board record schema: %v", err))
	}

	entryData, err := schemasFS.ReadFile("schemas/entry_record.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to read entry record schema: %v", err))
	}
	if err := compiler.AddResource("entry_record.schema.json", strings.NewReader(string(entryData))); err != nil {
		panic(fmt.Sprintf("failed to add entry record schema: %v", err))
	}
	entryRecordSchema, err = compiler.Compile("entry_record.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile entry record schema: %v", err))
	}
}

// ValidationError represents a single validation error with path context.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no errors"
	}
	var msgs []string
	for _, e := range ve {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateBoardRecordJSON validates one board record line against the schema.
func ValidateBoardRecordJSON(data []byte) ValidationErrors {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ValidationErrors{{Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}
	if err := boardRecordSchema.Validate(doc); err != nil {
		return schemaErrorToValidationErrors(err)
	}
	return nil
}

// ValidateEntryRecordJSON validates one entry record line against the schema.
func ValidateEntryRecordJSON(data []byte) ValidationErrors {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ValidationErrors{{Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}
	if err := entryRecordSchema.Validate(doc); err != nil {
		return schemaErrorToValidationErrors(err)
	}
	return nil
}

func schemaErrorToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors

	switch e := err.(type) {
	case *jsonschema.ValidationError:
		errors = append(errors, extractValidationErrors(e)...)
	default:
		errors = append(errors, ValidationError{Message: err.Error()})
	}

	return errors
}

func extractValidationErrors(ve *jsonschema.ValidationError) ValidationErrors {
	var errors ValidationErrors

	if ve.Message != "" {
		errors = append(errors, ValidationError{
			Path:    ve.InstanceLocation,
			Message: ve.Message,
		})
	}
	for _, cause := range ve.Causes {
		errors = append(errors, extractValidationErrors(cause)...)
	}

	return errors
}

// ValidateSolvedGrid re-checks the section 8 testable properties against a
// solved grid and its extracted entries, as a last line of defense before
// a board is persisted or exported: every run of length >= 2 must be a
// member of words, and no two entries may share an answer. A violation
// here means the solver broke its own invariants, not that the input was
// unsolvable, so callers should treat it as fatal (InvariantViolation).
func ValidateSolvedGrid(g *puzzle.Grid, entries []puzzle.Entry, words map[string]struct{}) ValidationErrors {
	var errors ValidationErrors

	seen := make(map[string]int)
	for i, e := range entries {
		if e.Length < 2 {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("/entries/%d", i),
				Message: fmt.Sprintf("entry of length %d should never have been extracted", e.Length),
			})
			continue
		}
		if _, ok := words[e.Answer]; !ok {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("/entries/%d/answer", i),
				Message: fmt.Sprintf("answer %q is not a member of the working word set", e.Answer),
			})
		}
		if prev, dup := seen[e.Answer]; dup {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("/entries/%d/answer", i),
				Message: fmt.Sprintf("answer %q duplicates entry %d", e.Answer, prev),
			})
		}
		seen[e.Answer] = i
	}

	errors = append(errors, checkCellCoverage(g, entries)...)

	return errors
}

// checkCellCoverage reports any non-blocked cell that is neither covered
// by an extracted entry nor a legitimate isolated cell (both its across
// and down runs have length 1, as in scenario S5).
func checkCellCoverage(g *puzzle.Grid, entries []puzzle.Entry) ValidationErrors {
	var errors ValidationErrors

	covered := make(map[[2]int]bool)
	for _, e := range entries {
		r, c := e.StartRow, e.StartCol
		for i := 0; i < e.Length; i++ {
			if e.Direction == domain.DirectionAcross {
				covered[[2]int{r, c + i}] = true
			} else {
				covered[[2]int{r + i, c}] = true
			}
		}
	}

	tpl := g.Template
	for r := 0; r < tpl.Rows; r++ {
		for c := 0; c < tpl.Cols; c++ {
			if tpl.IsBlocked(r, c) || covered[[2]int{r, c}] {
				continue
			}
			acrossLen1 := (c == 0 || tpl.IsBlocked(r, c-1)) && (c == tpl.Cols-1 || tpl.IsBlocked(r, c+1))
			downLen1 := (r == 0 || tpl.IsBlocked(r-1, c)) && (r == tpl.Rows-1 || tpl.IsBlocked(r+1, c))
			if !acrossLen1 || !downLen1 {
				errors = append(errors, ValidationError{
					Path:    fmt.Sprintf("/grid/%d/%d", r, c),
					Message: "non-blocked cell is not covered by any entry and is not isolated",
				})
			}
		}
	}

	return errors
}
