package completion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

// FieldType is the JSON type of a response field.
type FieldType int

const (
	StringField FieldType = iota
	NumberField
	BooleanField
)

// String returns the JSON type name.
func (t FieldType) String() string {
	switch t {
	case StringField:
		return "string"
	case NumberField:
		return "number"
	case BooleanField:
		return "boolean"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// cue returns the CUE type constraint.
func (t FieldType) cue() string {
	switch t {
	case NumberField:
		return "number"
	case BooleanField:
		return "bool"
	default:
		return "string"
	}
}

// ParseFieldType parses "string", "number" or "boolean".
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string":
		return StringField, nil
	case "number":
		return NumberField, nil
	case "boolean", "bool":
		return BooleanField, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}

// Field is one named, typed field of a response.
type Field struct {
	Name        string
	Type        FieldType
	Description string
}

// Text declares a string field.
func Text(name, description string) Field {
	return Field{Name: name, Type: StringField, Description: description}
}

// Number declares a numeric field.
func Number(name, description string) Field {
	return Field{Name: name, Type: NumberField, Description: description}
}

// Bool declares a boolean field.
func Bool(name, description string) Field {
	return Field{Name: name, Type: BooleanField, Description: description}
}

// Schema is the ordered list of fields a response must contain.
// Additional fields in a response are accepted and ignored.
type Schema struct {
	fields []Field
	source string
}

// NewSchema builds a schema. Field names must be non-empty and unique.
func NewSchema(fields ...Field) (Schema, error) {
	if len(fields) == 0 {
		return Schema{}, errors.New("schema has no fields")
	}
	seen := make(map[string]bool, len(fields))
	var src strings.Builder
	src.WriteString("{\n")
	for _, f := range fields {
		if f.Name == "" {
			return Schema{}, errors.New("schema field has no name")
		}
		if seen[f.Name] {
			return Schema{}, fmt.Errorf("duplicate schema field %q", f.Name)
		}
		seen[f.Name] = true
		fmt.Fprintf(&src, "\t%s!: %s\n", strconv.Quote(f.Name), f.Type.cue())
	}
	src.WriteString("}\n")

	out := make([]Field, len(fields))
	copy(out, fields)
	return Schema{fields: out, source: src.String()}, nil
}

// MustSchema is NewSchema for fixed declarations. It panics on error.
func MustSchema(fields ...Field) Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the declared fields in order.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Descriptions maps each field name to its description. This is the
// response_format shape of the gateway contract.
func (s Schema) Descriptions() map[string]string {
	out := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		out[f.Name] = f.Description
	}
	return out
}

// Instructions renders the schema as a system prompt for providers without
// native structured output.
func (s Schema) Instructions() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object containing these fields:\n")
	for _, f := range s.fields {
		fmt.Fprintf(&b, "- %q (%s): %s\n", f.Name, f.Type, f.Description)
	}
	b.WriteString("Output only the JSON object.")
	return b.String()
}

// Validate checks a raw JSON answer against the schema and extracts the
// declared fields. Any violation is reported as ErrMalformedResponse.
func (s Schema) Validate(raw []byte) (Result, error) {
	if len(s.fields) == 0 {
		return Result{}, fmt.Errorf("%w: empty schema", ErrMalformedResponse)
	}

	expr, err := cuejson.Extract("response", raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: not JSON: %v", ErrMalformedResponse, err)
	}

	// A cue.Context is not safe for concurrent use.
	ctx := cuecontext.New()
	schema := ctx.CompileString(s.source, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Result{}, fmt.Errorf("compile schema: %w", err)
	}

	v := schema.Unify(ctx.BuildExpr(expr))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.TrimSpace(cueerrors.Details(err, nil)))
	}

	res := Result{names: make([]string, 0, len(s.fields)), values: make(map[string]any, len(s.fields))}
	for _, f := range s.fields {
		fv := v.LookupPath(cue.MakePath(cue.Str(f.Name)))
		if !fv.Exists() {
			return Result{}, fmt.Errorf("%w: field %q is missing", ErrMalformedResponse, f.Name)
		}
		val, err := extract(fv, f.Type)
		if err != nil {
			return Result{}, fmt.Errorf("%w: field %q: %v", ErrMalformedResponse, f.Name, err)
		}
		res.names = append(res.names, f.Name)
		res.values[f.Name] = val
	}
	return res, nil
}

func extract(v cue.Value, t FieldType) (any, error) {
	switch t {
	case NumberField:
		return v.Float64()
	case BooleanField:
		return v.Bool()
	default:
		return v.String()
	}
}

// Result is a validated answer: every schema field present and typed.
type Result struct {
	names  []string
	values map[string]any
}

// NewResult builds a result from already-validated values, in the given
// field order.
func NewResult(names []string, values map[string]any) Result {
	r := Result{names: append([]string(nil), names...), values: make(map[string]any, len(values))}
	for k, v := range values {
		r.values[k] = v
	}
	return r
}

// Get returns the value of a field: string, float64 or bool.
func (r Result) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// String returns a field rendered as text, or "" if absent.
func (r Result) String(name string) string {
	switch v := r.values[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Names returns the field names in schema order.
func (r Result) Names() []string {
	return append([]string(nil), r.names...)
}

// Map returns a copy of the field values.
func (r Result) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
