// Package validate checks request payloads against fixed schemas before any
// mutation is attempted. Unknown fields are rejected, never dropped.
package validate

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// FieldError describes one validation failure.
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

// Errors is the structured report returned when a payload fails validation.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.String()
	}
	return strings.Join(parts, "; ")
}

func (e *Errors) add(path, format string, args ...any) {
	*e = append(*e, FieldError{Path: path, Reason: fmt.Sprintf(format, args...)})
}

// Schema is implemented by the schema node types below.
type Schema interface {
	check(path string, v any, errs *Errors)
}

// String matches a JSON string of at least MinLength characters.
type String struct {
	MinLength int
}

func (s String) check(path string, v any, errs *Errors) {
	str, ok := v.(string)
	if !ok {
		errs.add(path, "must be a string")
		return
	}
	if utf8.RuneCountInString(str) < s.MinLength {
		if s.MinLength == 1 {
			errs.add(path, "must not be empty")
			return
		}
		errs.add(path, "must be at least %d characters", s.MinLength)
	}
}

// Array matches a JSON array whose elements all match Items.
type Array struct {
	Items Schema
}

func (a Array) check(path string, v any, errs *Errors) {
	items, ok := v.([]any)
	if !ok {
		errs.add(path, "must be an array")
		return
	}
	for i, item := range items {
		a.Items.check(fmt.Sprintf("%s[%d]", path, i), item, errs)
	}
}

// Field is a named member of an Object.
type Field struct {
	Name     string
	Required bool
	Schema   Schema
}

// Object matches a JSON object. Members not listed in Fields are rejected
// unless AllowAdditional is set.
type Object struct {
	Fields          []Field
	AllowAdditional bool
}

func (o Object) check(path string, v any, errs *Errors) {
	obj, ok := v.(map[string]any)
	if !ok {
		if path == "" {
			errs.add("", "body must be a JSON object")
		} else {
			errs.add(path, "must be an object")
		}
		return
	}

	known := make(map[string]struct{}, len(o.Fields))
	for _, f := range o.Fields {
		known[f.Name] = struct{}{}
		val, present := obj[f.Name]
		if !present {
			if f.Required {
				errs.add(join(path, f.Name), "is required")
			}
			continue
		}
		f.Schema.check(join(path, f.Name), val, errs)
	}

	if o.AllowAdditional {
		return
	}
	var extra []string
	for name := range obj {
		if _, ok := known[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		errs.add(join(path, name), "unknown field")
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// Check validates an already decoded JSON value against schema.
func Check(schema Schema, v any) error {
	var errs Errors
	schema.check("", v, &errs)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Decode parses body and validates it against schema, returning the generic
// decoded value.
func Decode(body []byte, schema Schema) (any, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, Errors{{Reason: "body is required"}}
	}
	var v any
	if err := sonic.ConfigStd.Unmarshal(body, &v); err != nil {
		return nil, Errors{{Reason: "malformed JSON"}}
	}
	if err := Check(schema, v); err != nil {
		return nil, err
	}
	return v, nil
}
