package parse

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for empty or whitespace-only text.
	ErrInvalidInput = errors.New("invalid input: text is empty")

	// ErrNoBlocks is returned when the text contains no JSON candidate fences.
	ErrNoBlocks = errors.New("no JSON blocks found")

	// ErrParseFailed is wrapped by BlockError when no block decodes.
	ErrParseFailed = errors.New("failed to parse JSON block")
)

// BlockError reports that none of the candidate blocks decoded. Index is the
// first block that failed and Err its decoding error.
type BlockError struct {
	Index int
	Total int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("failed to parse block %d of %d: %v", e.Index, e.Total, e.Err)
}

// Unwrap exposes both ErrParseFailed and the underlying decoding error.
func (e *BlockError) Unwrap() []error {
	return []error{ErrParseFailed, e.Err}
}
