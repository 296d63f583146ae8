package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, raw string) any {
	t.Helper()
	var value any
	require.NoError(t, json.Unmarshal([]byte(raw), &value))
	return value
}

type fakeCatalog struct {
	types   map[string]bool
	aliases map[string]string
	props   map[string]map[string]PropSpec
}

func (c fakeCatalog) IsValidType(name string) bool {
	return c.types[strings.ToLower(name)]
}

func (c fakeCatalog) ResolveAlias(name string) (string, bool) {
	canonical, ok := c.aliases[strings.ToLower(name)]
	return canonical, ok
}

func (c fakeCatalog) PropSpecs(typeName string) (map[string]PropSpec, bool) {
	specs, ok := c.props[strings.ToLower(typeName)]
	return specs, ok
}

func newFakeCatalog() fakeCatalog {
	return fakeCatalog{
		types:   map[string]bool{"button": true, "stack": true, "text": true},
		aliases: map[string]string{"btn": "button", "vstack": "stack"},
		props: map[string]map[string]PropSpec{
			"button": {
				"label":   {Kind: KindString, Required: true},
				"variant": {Kind: KindString, Enum: []any{"primary", "secondary"}},
				"onClick": {Kind: KindFunction},
			},
		},
	}
}

func TestValidate_Codes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []ValidationError
	}{
		{
			name:  "valid minimal schema",
			input: `{"version":"1.0","root":{"id":"r","type":"Stack"}}`,
			want:  nil,
		},
		{
			name:  "array input",
			input: `[1,2,3]`,
			want:  []ValidationError{{Path: "", Code: CodeInvalidType}},
		},
		{
			name:  "string input",
			input: `"hello"`,
			want:  []ValidationError{{Path: "", Code: CodeInvalidType}},
		},
		{
			name:  "missing version",
			input: `{"root":{"id":"r","type":"Stack"}}`,
			want:  []ValidationError{{Path: "version", Code: CodeMissingField}},
		},
		{
			name:  "missing root",
			input: `{"version":"1.0"}`,
			want:  []ValidationError{{Path: "root", Code: CodeMissingField}},
		},
		{
			name:  "missing version and root",
			input: `{}`,
			want: []ValidationError{
				{Path: "version", Code: CodeMissingField},
				{Path: "root", Code: CodeMissingField},
			},
		},
		{
			name:  "root not an object",
			input: `{"version":"1.0","root":"Button"}`,
			want:  []ValidationError{{Path: "root", Code: CodeInvalidType}},
		},
		{
			name:  "missing root id",
			input: `{"version":"1.0","root":{"type":"Button"}}`,
			want:  []ValidationError{{Path: "root.id", Code: CodeMissingField}},
		},
		{
			name:  "numeric id and type",
			input: `{"version":"1.0","root":{"id":1,"type":2}}`,
			want: []ValidationError{
				{Path: "root.id", Code: CodeInvalidType},
				{Path: "root.type", Code: CodeInvalidType},
			},
		},
		{
			name:  "children not an array",
			input: `{"version":"1.0","root":{"id":"r","type":"Stack","children":{}}}`,
			want:  []ValidationError{{Path: "root.children", Code: CodeInvalidType}},
		},
		{
			name: "errors across the tree in document order",
			input: `{"root":{"id":"r","type":"Stack","children":[
				{"type":"Text"},
				"oops",
				{"id":"c","children":[{"id":"r","type":"Text","text":5}]}
			]},"data":[]}`,
			want: []ValidationError{
				{Path: "version", Code: CodeMissingField},
				{Path: "root.children[0].id", Code: CodeMissingField},
				{Path: "root.children[1]", Code: CodeInvalidType},
				{Path: "root.children[2].type", Code: CodeMissingField},
				{Path: "root.children[2].children[0].id", Code: CodeInvalidValue},
				{Path: "root.children[2].children[0].text", Code: CodeInvalidType},
				{Path: "data", Code: CodeInvalidType},
			},
		},
		{
			name:  "props not an object",
			input: `{"version":"1.0","root":{"id":"r","type":"Button","props":[1]}}`,
			want:  []ValidationError{{Path: "root.props", Code: CodeInvalidType}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(decodeJSON(t, tt.input))

			got := make([]ValidationError, 0, len(result.Errors))
			for _, e := range result.Errors {
				assert.NotEmpty(t, e.Message)
				got = append(got, ValidationError{Path: e.Path, Code: e.Code})
			}
			if len(tt.want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, len(result.Errors) == 0, result.Valid)
		})
	}
}

func TestValidate_NonObjectYieldsExactlyOneError(t *testing.T) {
	for _, input := range []any{nil, 42.0, true, "x", []any{}, []any{map[string]any{}}} {
		result := Validate(input)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeInvalidType, result.Errors[0].Code)
		assert.Equal(t, "", result.Errors[0].Path)
		assert.False(t, result.Valid)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	input := decodeJSON(t, `{"root":{"type":"X","children":[{"props":5},{"id":"a"},{"id":"a","type":"Y"}]}}`)

	first, err := json.Marshal(Validate(input))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(Validate(input))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestValidate_Catalog(t *testing.T) {
	validator := NewValidator(WithCatalog(newFakeCatalog()))

	t.Run("known types, aliases and case-insensitive names pass", func(t *testing.T) {
		result := validator.Validate(decodeJSON(t, `{"version":"1.0","root":{"id":"r","type":"VStack","children":[
			{"id":"a","type":"btn","props":{"label":"Go"}},
			{"id":"b","type":"TEXT"}
		]}}`))
		assert.True(t, result.Valid, result.Summary())
	})

	t.Run("unknown type is an error", func(t *testing.T) {
		result := validator.Validate(decodeJSON(t, `{"version":"1.0","root":{"id":"r","type":"Carousel"}}`))
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeUnknownComponent, result.Errors[0].Code)
		assert.Equal(t, "root.type", result.Errors[0].Path)
	})

	t.Run("unknown type as warning", func(t *testing.T) {
		lenient := NewValidator(WithCatalog(newFakeCatalog()), WithUnknownComponentsAsWarnings())
		result := lenient.Validate(decodeJSON(t, `{"version":"1.0","root":{"id":"r","type":"Carousel"}}`))
		assert.True(t, result.Valid)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, CodeUnknownComponent, result.Warnings[0].Code)
	})

	t.Run("prop specs", func(t *testing.T) {
		result := validator.Validate(decodeJSON(t, `{"version":"1.0","root":{"id":"r","type":"Button","props":{"onClick":7,"variant":"ghost"}}}`))
		got := make([]ValidationError, 0, len(result.Errors))
		for _, e := range result.Errors {
			got = append(got, ValidationError{Path: e.Path, Code: e.Code})
		}
		assert.Equal(t, []ValidationError{
			{Path: "root.props.label", Code: CodeMissingField},
			{Path: "root.props.onClick", Code: CodeInvalidType},
			{Path: "root.props.variant", Code: CodeInvalidValue},
		}, got)
	})

	t.Run("no catalog skips the type check", func(t *testing.T) {
		result := Validate(decodeJSON(t, `{"version":"1.0","root":{"id":"r","type":"Carousel"}}`))
		assert.True(t, result.Valid)
	})
}

func TestValidate_VersionConstraint(t *testing.T) {
	constraint, err := semver.NewConstraint(">= 1.0, < 2.0")
	require.NoError(t, err)
	validator := NewValidator(WithVersionConstraint(constraint))

	tests := []struct {
		version string
		valid   bool
	}{
		{"1.0", true},
		{"1.4.2", true},
		{"2.0", false},
		{"latest", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			result := validator.Validate(map[string]any{
				"version": tt.version,
				"root":    map[string]any{"id": "r", "type": "Stack"},
			})
			assert.Equal(t, tt.valid, result.Valid, result.Summary())
			if !tt.valid {
				assert.Equal(t, CodeInvalidValue, result.Errors[0].Code)
			}
		})
	}
}

func TestValidateUISchema_Typed(t *testing.T) {
	valid := &UISchema{
		Version: "1.0",
		Root: Component{ID: "root", Type: "Stack", Children: []Component{
			{ID: "title", Type: "Text", Text: "Hello"},
		}},
	}
	assert.True(t, NewValidator().ValidateUISchema(valid).Valid)

	missing := &UISchema{Version: "1.0", Root: Component{Type: "Stack"}}
	result := NewValidator().ValidateUISchema(missing)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "root.id", result.Errors[0].Path)

	assert.False(t, NewValidator().ValidateUISchema(nil).Valid)
}

func TestDecode(t *testing.T) {
	decoded, err := Decode(decodeJSON(t, `{"root":{"id":"r","type":"Stack","children":[{"id":"t","type":"Text","text":"hi"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, decoded.Version)
	assert.Equal(t, 2, decoded.Root.Count())
	assert.Equal(t, "hi", decoded.Root.Children[0].Text)

	_, err = Decode("not an object")
	assert.Error(t, err)
}

func TestValidationResult_Summary(t *testing.T) {
	assert.Equal(t, "valid", NewResult(nil, nil).Summary())

	result := Failure(CodeMissingField, "root.id", "component id is required")
	assert.Equal(t, "[MISSING_FIELD] root.id: component id is required", result.Summary())
}

func TestPropSpec_Allows(t *testing.T) {
	tests := []struct {
		name  string
		enum  []any
		value any
		want  bool
	}{
		{name: "empty enum", value: "anything", want: true},
		{name: "matching string", enum: []any{"sm", "lg"}, value: "lg", want: true},
		{name: "number does not match its string form", enum: []any{"1", "true"}, value: float64(1), want: false},
		{name: "boolean does not match its string form", enum: []any{"1", "true"}, value: true, want: false},
		{name: "yaml int matches json number", enum: []any{1, 2}, value: float64(2), want: true},
		{name: "fractional number", enum: []any{0.5}, value: float64(0.5), want: true},
		{name: "boolean", enum: []any{false}, value: false, want: true},
		{name: "string does not match number", enum: []any{1}, value: "1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := PropSpec{Kind: KindAny, Enum: tt.enum}
			assert.Equal(t, tt.want, spec.Allows(tt.value))
		})
	}
}
