// Package prompt assembles the instruction prompt sent to the model.
//
// A prompt is an ordered list of atomic [Section] values. [Build] keeps the
// sections that fit a token budget, dropping the lowest priority ones first,
// and joins the survivors in their original order. [Builder] produces the
// standard section list for a UI generation task together with a
// deterministic cache key, and [FixPrompt] renders the corrective prompt sent
// after an attempt fails validation.
package prompt
