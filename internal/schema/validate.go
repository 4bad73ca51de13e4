package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/oddiville/sheets/internal/sheet"
)

// ErrValidation marks a payload that does not match its kind's schema.
var ErrValidation = errors.New("sheet payload failed validation")

// FieldError locates one validation failure inside a payload.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	if f.Path == "" {
		return f.Message
	}
	return f.Path + ": " + f.Message
}

// ValidationError carries every field-level failure of one payload.
type ValidationError struct {
	Kind   sheet.Kind
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Kind, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type rawPayload struct {
	Sections []json.RawMessage `json:"sections"`
	Buttons  []json.RawMessage `json:"buttons"`
}

type rawSection struct {
	Type *sheet.SectionType `json:"type"`
	Data json.RawMessage    `json:"data"`
}

// Validate checks raw against kind's schema and returns the typed payload
// with defaults applied. Failures are reported as a *ValidationError.
func (r *Registry) Validate(kind sheet.Kind, raw []byte) (*sheet.Payload, error) {
	def, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}

	var body rawPayload
	if err := strictUnmarshal(raw, &body); err != nil {
		return nil, &ValidationError{Kind: kind, Fields: []FieldError{{Message: "payload: " + err.Error()}}}
	}

	e, err := r.acquire()
	if err != nil {
		return nil, err
	}
	defer r.release(e)

	var fields []FieldError
	if len(body.Sections) == 0 {
		fields = append(fields, FieldError{Path: "sections", Message: "at least one section is required"})
	}
	for i, rs := range body.Sections {
		fields = append(fields, e.validateSection(def, i, rs)...)
	}

	if len(body.Buttons) > 0 && !def.Buttons {
		fields = append(fields, FieldError{Path: "buttons", Message: fmt.Sprintf("buttons are not allowed for %s", kind)})
	} else {
		for i, rb := range body.Buttons {
			fields = append(fields, e.check(e.button, rb, "buttons."+strconv.Itoa(i))...)
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Kind: kind, Fields: fields}
	}

	var p sheet.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ValidationError{Kind: kind, Fields: []FieldError{{Message: "decode: " + err.Error()}}}
	}
	return &p, nil
}

func (e *evaluator) validateSection(def *Definition, i int, raw json.RawMessage) []FieldError {
	prefix := "sections." + strconv.Itoa(i)

	var rs rawSection
	if err := strictUnmarshal(raw, &rs); err != nil {
		return []FieldError{{Path: prefix, Message: err.Error()}}
	}
	if rs.Type == nil {
		return []FieldError{{Path: prefix + ".type", Message: "required"}}
	}
	if !def.Allows(*rs.Type) {
		return []FieldError{{
			Path:    prefix + ".type",
			Message: fmt.Sprintf("invalid discriminator value %q, expected one of %s", *rs.Type, joinTypes(def.Sections)),
		}}
	}
	if len(rs.Data) == 0 || bytes.Equal(rs.Data, []byte("null")) {
		return []FieldError{{Path: prefix + ".data", Message: "required"}}
	}
	return e.check(e.sections[*rs.Type], rs.Data, prefix+".data")
}

// check unifies one JSON document with a CUE schema and flattens the
// resulting errors into field errors rooted at prefix.
func (e *evaluator) check(schema cue.Value, doc json.RawMessage, prefix string) []FieldError {
	e.checks++
	v := e.ctx.CompileBytes(doc)
	if err := v.Err(); err != nil {
		return []FieldError{{Path: prefix, Message: "malformed JSON: " + err.Error()}}
	}
	err := schema.Unify(v).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var out []FieldError
	seen := make(map[string]bool)
	for _, ce := range cueerrors.Errors(err) {
		format, args := ce.Msg()
		fe := FieldError{
			Path:    joinPath(prefix, schemaRelative(ce.Path())),
			Message: fmt.Sprintf(format, args...),
		}
		if key := fe.String(); !seen[key] {
			seen[key] = true
			out = append(out, fe)
		}
	}
	if len(out) == 0 {
		out = append(out, FieldError{Path: prefix, Message: err.Error()})
	}
	return out
}

// schemaRelative drops the definition selectors CUE prefixes to error paths
// of looked-up schema values.
func schemaRelative(path []string) []string {
	if len(path) > 0 && path[0] == "#Sections" {
		if len(path) > 1 {
			return path[2:]
		}
		return nil
	}
	if len(path) > 0 && path[0] == "#Button" {
		return path[1:]
	}
	return path
}

func joinPath(prefix string, rel []string) string {
	if len(rel) == 0 {
		return prefix
	}
	return prefix + "." + strings.Join(rel, ".")
}

func joinTypes(ts []sheet.SectionType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func strictUnmarshal(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
