package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// Describe renders the catalog as markdown for the prompt's catalog section.
// Output is deterministic: components in file order, props sorted by name.
func (c *Catalog) Describe() string {
	var b strings.Builder
	for i, component := range c.components {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- **" + component.Name + "**")
		if len(component.Aliases) > 0 {
			b.WriteString(" (aliases: " + strings.Join(component.Aliases, ", ") + ")")
		}
		if component.Description != "" {
			b.WriteString(": " + component.Description)
		}

		names := make([]string, 0, len(component.Props))
		for name := range component.Props {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			spec := component.Props[name]
			b.WriteString("\n  - `" + name + "` " + string(spec.Kind))
			if spec.Required {
				b.WriteString(", required")
			}
			if len(spec.Enum) > 0 {
				values := make([]string, len(spec.Enum))
				for j, value := range spec.Enum {
					values[j] = fmt.Sprint(value)
				}
				b.WriteString(", one of: " + strings.Join(values, " | "))
			}
			if spec.Default != nil {
				fmt.Fprintf(&b, ", default %v", spec.Default)
			}
			if spec.Description != "" {
				b.WriteString(": " + spec.Description)
			}
		}
	}
	return b.String()
}
