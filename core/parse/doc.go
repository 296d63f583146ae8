// Package parse recovers JSON documents from raw LLM text output. Models
// frequently wrap JSON in narrative prose or emit several markdown code
// fences in one reply, so this package scans the text for fenced blocks
// with a fixed priority: fences tagged "json" first, then untagged fences
// whose body looks like JSON. It never guesses JSON boundaries outside of
// fences.
//
// [ExtractBlocks] returns the raw blocks with their offsets, [ExtractJSON]
// and [ExtractAllJSON] decode them, and [ExtractUISchema] returns the first
// block that looks like a UI schema. Decoding can optionally fall back to
// automatic JSON repair through [WithRepair].
package parse
