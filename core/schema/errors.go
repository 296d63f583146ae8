package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorCode classifies a ValidationError.
type ErrorCode string

const (
	CodeMissingField     ErrorCode = "MISSING_FIELD"
	CodeInvalidType      ErrorCode = "INVALID_TYPE"
	CodeInvalidValue     ErrorCode = "INVALID_VALUE"
	CodeUnknownComponent ErrorCode = "UNKNOWN_COMPONENT"

	// Attempt-level codes. The validator never emits these; the retry
	// orchestrator records them when an attempt fails before or instead of
	// validation.
	CodeTimeout          ErrorCode = "TIMEOUT"
	CodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	CodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	CodeCancelled        ErrorCode = "CANCELLED"
)

// String returns the wire representation of the code.
func (c ErrorCode) String() string {
	return string(c)
}

// ValidationError is one addressable problem found in a candidate schema.
// Path uses dotted/bracket notation ("root.children[0].id"); the empty path
// addresses the document itself.
type ValidationError struct {
	Path    string    `json:"path"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface so a ValidationError can travel through
// error-returning APIs when convenient.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// ValidationResult is the outcome of a validation pass. Valid is true iff
// Errors is empty. Warnings never affect Valid.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []ValidationError `json:"warnings,omitempty"`
}

// NewResult builds a ValidationResult whose Valid flag is derived from errs.
func NewResult(errs []ValidationError, warnings []ValidationError) ValidationResult {
	return ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// Failure returns an invalid result carrying a single error.
func Failure(code ErrorCode, path, message string) ValidationResult {
	return NewResult([]ValidationError{{Path: path, Code: code, Message: message}}, nil)
}

// Summary renders the errors one per line, in order.
func (r ValidationResult) Summary() string {
	if r.Valid {
		return "valid"
	}
	lines := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "\n")
}

func joinPath(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}

func childPath(parent string, index int) string {
	return parent + ".children[" + strconv.Itoa(index) + "]"
}
