package prompt

import (
	"sort"
	"strings"
)

// sectionSeparator joins the kept sections of a prompt.
const sectionSeparator = "\n\n"

// BuildResult is the text of a built prompt and what went into it.
type BuildResult struct {
	Text string `json:"text"`
	// IncludedSections lists the kept section names in prompt order.
	IncludedSections []string `json:"included_sections"`
	TotalTokens      int      `json:"total_tokens"`
	// OverBudget is set when the single remaining section alone exceeds the
	// budget. The section is kept anyway.
	OverBudget bool `json:"over_budget"`
}

// Includes reports whether the named section made it into the prompt.
func (r BuildResult) Includes(name string) bool {
	for _, included := range r.IncludedSections {
		if included == name {
			return true
		}
	}
	return false
}

// Build keeps as many sections as fit tokenBudget and joins them in their
// original order. Sections are dropped whole, lowest priority first; among
// equal priorities the one appearing later goes first. The last remaining
// section is never dropped, so TotalTokens can exceed the budget, in which
// case OverBudget is set. A budget of zero or less means no limit.
//
// TotalTokens is the sum of the kept sections' estimates, not an estimate
// of the joined text.
func Build(sections []Section, tokenBudget int) BuildResult {
	kept := make([]bool, len(sections))
	total := 0
	for i, section := range sections {
		kept[i] = true
		total += section.EstimatedTokens
	}

	if tokenBudget > 0 && total > tokenBudget {
		for _, i := range dropOrder(sections) {
			if total <= tokenBudget || remaining(kept) == 1 {
				break
			}
			kept[i] = false
			total -= sections[i].EstimatedTokens
		}
	}

	result := BuildResult{IncludedSections: []string{}}
	parts := make([]string, 0, len(sections))
	for i, section := range sections {
		if !kept[i] {
			continue
		}
		parts = append(parts, section.Content)
		result.IncludedSections = append(result.IncludedSections, section.Name)
	}
	result.Text = strings.Join(parts, sectionSeparator)
	result.TotalTokens = total
	result.OverBudget = tokenBudget > 0 && total > tokenBudget
	return result
}

// dropOrder returns section indexes in the order they are dropped.
func dropOrder(sections []Section) []int {
	order := make([]int, len(sections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := sections[order[a]].Priority, sections[order[b]].Priority
		if pa != pb {
			return pa < pb
		}
		return order[a] > order[b]
	})
	return order
}

func remaining(kept []bool) int {
	n := 0
	for _, k := range kept {
		if k {
			n++
		}
	}
	return n
}
