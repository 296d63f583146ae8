// Package schema defines the UISchema wire contract (a versioned tree of UI
// components) and the validator that decides whether a decoded JSON value
// conforms to it.
//
// Validation never stops at the first problem: [Validator.Validate] walks the
// whole tree once, in document order, and returns every [ValidationError] it
// finds with a dotted/bracket path such as "root.children[2].id". The same
// input always produces the same ordered error list, so the list can be fed
// back to a model verbatim as correction instructions.
//
// A component catalog is optional. When one is supplied through
// [WithCatalog], unknown component types are reported as
// [CodeUnknownComponent]; if the catalog also implements [PropCatalog], each
// component's props are checked against its [PropSpec] map.
package schema
