package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// Validator checks decoded JSON values against the UISchema contract.
// A Validator is immutable after construction and safe for concurrent use.
type Validator struct {
	catalog           Catalog
	unknownAsWarning  bool
	versionConstraint *semver.Constraints
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithCatalog enables the UNKNOWN_COMPONENT check (and prop checks when the
// catalog implements PropCatalog). A nil catalog disables both.
func WithCatalog(catalog Catalog) ValidatorOption {
	return func(v *Validator) {
		v.catalog = catalog
	}
}

// WithUnknownComponentsAsWarnings downgrades UNKNOWN_COMPONENT findings to
// warnings, which do not make the result invalid.
func WithUnknownComponentsAsWarnings() ValidatorOption {
	return func(v *Validator) {
		v.unknownAsWarning = true
	}
}

// WithVersionConstraint rejects schema versions outside the constraint
// (for example ">= 1.0, < 2.0") with INVALID_VALUE.
func WithVersionConstraint(constraint *semver.Constraints) ValidatorOption {
	return func(v *Validator) {
		v.versionConstraint = constraint
	}
}

// NewValidator returns a Validator configured with opts.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate is a convenience for NewValidator().Validate(candidate).
func Validate(candidate any) ValidationResult {
	return NewValidator().Validate(candidate)
}

// Validate reports every contract violation in candidate, in document order.
// candidate is expected to come from encoding/json decoding into any.
func (v *Validator) Validate(candidate any) ValidationResult {
	document, ok := candidate.(map[string]any)
	if !ok {
		return Failure(CodeInvalidType, "", fmt.Sprintf("schema must be a JSON object, got %s", kindOf(candidate)))
	}

	pass := &validationPass{validator: v, seenIDs: map[string]string{}}

	pass.checkVersion(document)

	rawRoot, present := document["root"]
	switch root, isObject := rawRoot.(map[string]any); {
	case !present || rawRoot == nil:
		pass.fail("root", CodeMissingField, "root component is required")
	case !isObject:
		pass.fail("root", CodeInvalidType, fmt.Sprintf("root must be an object, got %s", kindOf(rawRoot)))
	default:
		pass.checkComponent("root", root)
	}

	if data, present := document["data"]; present && data != nil {
		if _, isObject := data.(map[string]any); !isObject {
			pass.fail("data", CodeInvalidType, fmt.Sprintf("data must be an object, got %s", kindOf(data)))
		}
	}

	return NewResult(pass.errors, pass.warnings)
}

// ValidateUISchema validates an already typed schema by round-tripping it
// through its wire form, so typed and untyped inputs share one rule set.
func (v *Validator) ValidateUISchema(s *UISchema) ValidationResult {
	if s == nil {
		return Failure(CodeInvalidType, "", "schema must be a JSON object, got null")
	}
	encoded, err := json.Marshal(s)
	if err != nil {
		return Failure(CodeInvalidValue, "", fmt.Sprintf("schema cannot be encoded: %v", err))
	}
	var generic any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return Failure(CodeInvalidValue, "", fmt.Sprintf("schema cannot be decoded: %v", err))
	}
	return v.Validate(generic)
}

// Decode converts a generic JSON value into a typed UISchema. It does not
// validate; callers normally validate first.
func Decode(candidate any) (*UISchema, error) {
	encoded, err := json.Marshal(candidate)
	if err != nil {
		return nil, fmt.Errorf("encode candidate: %w", err)
	}
	var decoded UISchema
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return nil, fmt.Errorf("decode candidate as UISchema: %w", err)
	}
	if decoded.Version == "" {
		decoded.Version = DefaultVersion
	}
	return &decoded, nil
}

type validationPass struct {
	validator *Validator
	errors    []ValidationError
	warnings  []ValidationError
	seenIDs   map[string]string // id -> path of first occurrence
}

func (p *validationPass) fail(path string, code ErrorCode, message string) {
	p.errors = append(p.errors, ValidationError{Path: path, Code: code, Message: message})
}

func (p *validationPass) warn(path string, code ErrorCode, message string) {
	p.warnings = append(p.warnings, ValidationError{Path: path, Code: code, Message: message})
}

func (p *validationPass) checkVersion(document map[string]any) {
	raw, present := document["version"]
	if !present || raw == nil {
		p.fail("version", CodeMissingField, "version is required")
		return
	}
	version, ok := raw.(string)
	if !ok {
		p.fail("version", CodeInvalidType, fmt.Sprintf("version must be a string, got %s", kindOf(raw)))
		return
	}
	if p.validator.versionConstraint == nil {
		return
	}
	parsed, err := semver.NewVersion(version)
	if err != nil {
		p.fail("version", CodeInvalidValue, fmt.Sprintf("version %q is not a semantic version", version))
		return
	}
	if !p.validator.versionConstraint.Check(parsed) {
		p.fail("version", CodeInvalidValue, fmt.Sprintf("version %q does not satisfy %s", version, p.validator.versionConstraint))
	}
}

func (p *validationPass) checkComponent(path string, component map[string]any) {
	p.checkID(path, component)
	canonical := p.checkType(path, component)
	p.checkProps(path, component, canonical)

	if text, present := component["text"]; present && text != nil {
		if _, ok := text.(string); !ok {
			p.fail(joinPath(path, "text"), CodeInvalidType, fmt.Sprintf("text must be a string, got %s", kindOf(text)))
		}
	}

	rawChildren, present := component["children"]
	if !present || rawChildren == nil {
		return
	}
	children, ok := rawChildren.([]any)
	if !ok {
		p.fail(joinPath(path, "children"), CodeInvalidType, fmt.Sprintf("children must be an array, got %s", kindOf(rawChildren)))
		return
	}
	for i, rawChild := range children {
		child, ok := rawChild.(map[string]any)
		if !ok {
			p.fail(childPath(path, i), CodeInvalidType, fmt.Sprintf("child must be an object, got %s", kindOf(rawChild)))
			continue
		}
		p.checkComponent(childPath(path, i), child)
	}
}

func (p *validationPass) checkID(path string, component map[string]any) {
	idPath := joinPath(path, "id")
	raw, present := component["id"]
	if !present || raw == nil {
		p.fail(idPath, CodeMissingField, "component id is required")
		return
	}
	id, ok := raw.(string)
	if !ok {
		p.fail(idPath, CodeInvalidType, fmt.Sprintf("id must be a string, got %s", kindOf(raw)))
		return
	}
	if id == "" {
		p.fail(idPath, CodeMissingField, "component id must not be empty")
		return
	}
	if first, duplicate := p.seenIDs[id]; duplicate {
		p.fail(idPath, CodeInvalidValue, fmt.Sprintf("duplicate id %q (first used at %s)", id, first))
		return
	}
	p.seenIDs[id] = path
}

// checkType returns the canonical type name, or "" when the type is missing,
// malformed, or unknown.
func (p *validationPass) checkType(path string, component map[string]any) string {
	typePath := joinPath(path, "type")
	raw, present := component["type"]
	if !present || raw == nil {
		p.fail(typePath, CodeMissingField, "component type is required")
		return ""
	}
	typeName, ok := raw.(string)
	if !ok {
		p.fail(typePath, CodeInvalidType, fmt.Sprintf("type must be a string, got %s", kindOf(raw)))
		return ""
	}
	if typeName == "" {
		p.fail(typePath, CodeMissingField, "component type must not be empty")
		return ""
	}

	catalog := p.validator.catalog
	if catalog == nil {
		return typeName
	}
	if catalog.IsValidType(typeName) {
		if canonical, aliased := catalog.ResolveAlias(typeName); aliased {
			return canonical
		}
		return typeName
	}
	if canonical, aliased := catalog.ResolveAlias(typeName); aliased && catalog.IsValidType(canonical) {
		return canonical
	}

	message := fmt.Sprintf("unknown component type %q", typeName)
	if p.validator.unknownAsWarning {
		p.warn(typePath, CodeUnknownComponent, message)
	} else {
		p.fail(typePath, CodeUnknownComponent, message)
	}
	return ""
}

func (p *validationPass) checkProps(path string, component map[string]any, canonical string) {
	propsPath := joinPath(path, "props")
	props := map[string]any{}
	if raw, present := component["props"]; present && raw != nil {
		object, ok := raw.(map[string]any)
		if !ok {
			p.fail(propsPath, CodeInvalidType, fmt.Sprintf("props must be an object, got %s", kindOf(raw)))
			return
		}
		props = object
	}

	if canonical == "" {
		return
	}
	propCatalog, ok := p.validator.catalog.(PropCatalog)
	if !ok {
		return
	}
	specs, ok := propCatalog.PropSpecs(canonical)
	if !ok {
		return
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := specs[name]
		propPath := joinPath(propsPath, name)
		value, present := props[name]
		if !present || value == nil {
			if spec.Required && spec.Default == nil {
				p.fail(propPath, CodeMissingField, fmt.Sprintf("prop %q is required for %s", name, canonical))
			}
			continue
		}
		if !spec.Matches(value) {
			p.fail(propPath, CodeInvalidType, fmt.Sprintf("prop %q must be %s, got %s", name, spec.Kind, kindOf(value)))
			continue
		}
		if !spec.Allows(value) {
			p.fail(propPath, CodeInvalidValue, fmt.Sprintf("prop %q must be one of %v, got %v", name, spec.Enum, value))
		}
	}
}

// kindOf names the JSON kind of a decoded value for error messages.
func kindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32, json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", value)
	}
}
