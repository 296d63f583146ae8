package schema

// DefaultVersion is injected into extracted schemas that omit "version".
const DefaultVersion = "1.0"

// UISchema is the structured, versioned description of a UI component tree.
// Field names are part of the wire contract and must not change.
type UISchema struct {
	Version string         `json:"version"`
	Root    Component      `json:"root"`
	Data    map[string]any `json:"data,omitempty"`
}

// Component is a single node of the UI tree. ID is unique within a tree.
type Component struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Props    map[string]any `json:"props,omitempty"`
	Children []Component    `json:"children,omitempty"`
	Text     string         `json:"text,omitempty"`
}

// Walk calls fn for the component and each descendant in depth-first,
// document order. Returning false from fn stops the walk.
func (c *Component) Walk(fn func(path string, component *Component) bool) {
	walk("root", c, fn)
}

func walk(path string, c *Component, fn func(string, *Component) bool) bool {
	if !fn(path, c) {
		return false
	}
	for i := range c.Children {
		if !walk(childPath(path, i), &c.Children[i], fn) {
			return false
		}
	}
	return true
}

// Count returns the number of components in the tree rooted at c.
func (c *Component) Count() int {
	n := 0
	c.Walk(func(string, *Component) bool {
		n++
		return true
	})
	return n
}
