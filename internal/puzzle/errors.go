package puzzle

import "errors"

// Sentinel errors for the four error kinds the generator distinguishes.
// TemplateInvalid and DictionaryEmpty are surfaced to the caller without
// retry; Unsolvable is a retryable failure signal; InvariantViolation is
// fatal and must halt the process.
var (
	ErrTemplateInvalid    = errors.New("puzzle: template invalid")
	ErrDictionaryEmpty    = errors.New("puzzle: dictionary empty")
	ErrUnsolvable         = errors.New("puzzle: unsolvable")
	ErrInvariantViolation = errors.New("puzzle: invariant violation")
)
