package prompt

import "text/template"

const outputFormatTemplate = `## Output format
Reply with exactly one UI schema inside a single ` + "```json" + ` code block.
The schema is a JSON object with:
- "version": the schema version string, for example "1.0".
- "root": the root component.
- "data" (optional): an object with the data the components bind to.
Every component is an object with a non-empty "id" that is unique in the tree,
a "type" taken from the component catalog, and optionally "props" (object),
"text" (string) and "children" (array of components).
{{- if .Language}}
Write all user-visible text in {{.Language}}.
{{- end}}
Do not add comments inside the JSON.`

const fixTemplate = `{{.Task}}

The previous attempt was invalid.

Previous output:
{{.PreviousOutput}}

Fix every error below and reply with the complete corrected UI schema in a single ` + "```json" + ` code block:
{{- range .Errors}}
- [{{.Code}}] {{displayPath .Path}}: {{.Message}}
{{- end}}`

var templates = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"displayPath": displayPath,
}).Parse(`{{define "format"}}` + outputFormatTemplate + `{{end}}{{define "fix"}}` + fixTemplate + `{{end}}`))

// displayPath renders the document-level path, which is empty, as "(document)".
func displayPath(path string) string {
	if path == "" {
		return "(document)"
	}
	return path
}
