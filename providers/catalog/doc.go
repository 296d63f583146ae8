// Package catalog loads the component catalog: the registry of component
// types a model may use, with their aliases and prop schemas.
//
// A [Catalog] satisfies schema.PropCatalog, so it plugs straight into the
// validator, and renders itself as prompt documentation with Describe.
// Catalog files are YAML:
//
//	version: 1.2.0
//	components:
//	  - name: Button
//	    aliases: [btn]
//	    description: A clickable button.
//	    props:
//	      label: {kind: string, required: true}
//	      variant: {kind: string, enum: [primary, secondary]}
//
// [Watch] keeps a catalog in sync with its file and reports reloads, which
// callers use to invalidate cached prompts.
package catalog
