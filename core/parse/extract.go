package parse

import (
	"strings"

	"github.com/leofalp/uigen/core/schema"
)

// ExtractJSON decodes the blocks of text in order and returns the first one
// that is valid JSON. An earlier malformed block never stops the scan.
func ExtractJSON(text string, opts ...Option) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}

	blocks := ExtractBlocks(text)
	if len(blocks) == 0 {
		return nil, ErrNoBlocks
	}

	o := applyOptions(opts)
	var firstErr *BlockError
	for i, block := range blocks {
		value, err := decodeBlock(block.Content, o)
		if err == nil {
			return value, nil
		}
		if firstErr == nil {
			firstErr = &BlockError{Index: i, Total: len(blocks), Err: err}
		}
	}
	return nil, firstErr
}

// ExtractAllJSON decodes every block of text and returns the ones that are
// valid JSON, in order. Unparseable blocks are skipped.
func ExtractAllJSON(text string, opts ...Option) []any {
	o := applyOptions(opts)
	blocks := ExtractBlocks(text)

	values := make([]any, 0, len(blocks))
	for _, block := range blocks {
		value, err := decodeBlock(block.Content, o)
		if err != nil {
			continue
		}
		values = append(values, value)
	}
	return values
}

// ExtractUISchema returns the first block that decodes to an object with a
// root carrying both id and type. A missing version is set to
// schema.DefaultVersion. The result is not validated beyond that check.
func ExtractUISchema(text string, opts ...Option) (*schema.UISchema, bool) {
	for _, value := range ExtractAllJSON(text, opts...) {
		document, ok := value.(map[string]any)
		if !ok || !hasMinimalRoot(document) {
			continue
		}
		if _, present := document["version"]; !present {
			document["version"] = schema.DefaultVersion
		}
		decoded, err := schema.Decode(document)
		if err != nil {
			continue
		}
		return decoded, true
	}
	return nil, false
}

// Candidate is the value the retry pipeline validates for one model reply.
type Candidate struct {
	Value any
	Block Block
	// Index is the position of Block among the extracted blocks.
	Index int
}

// ExtractCandidate picks the first block that decodes to a JSON object,
// falling back to the first block that decodes at all. The returned error
// follows ExtractJSON's taxonomy when nothing decodes.
func ExtractCandidate(text string, opts ...Option) (*Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}
	blocks := ExtractBlocks(text)
	if len(blocks) == 0 {
		return nil, ErrNoBlocks
	}

	o := applyOptions(opts)
	var fallback *Candidate
	var firstErr *BlockError
	for i, block := range blocks {
		value, err := decodeBlock(block.Content, o)
		if err != nil {
			if firstErr == nil {
				firstErr = &BlockError{Index: i, Total: len(blocks), Err: err}
			}
			continue
		}
		if _, isObject := value.(map[string]any); isObject {
			return &Candidate{Value: value, Block: block, Index: i}, nil
		}
		if fallback == nil {
			fallback = &Candidate{Value: value, Block: block, Index: i}
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, firstErr
}

func hasMinimalRoot(document map[string]any) bool {
	root, ok := document["root"].(map[string]any)
	if !ok {
		return false
	}
	id, _ := root["id"].(string)
	typeName, _ := root["type"].(string)
	return id != "" && typeName != ""
}
