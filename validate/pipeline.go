package validate

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Location names the request section a field is read from.
type Location string

const (
	LocationBody    Location = "body"
	LocationParams  Location = "params"
	LocationHeaders Location = "headers"
	LocationQuery   Location = "query"
)

// Request is the transport-agnostic input to a schema run. Absent maps are
// treated as empty.
type Request struct {
	Body    map[string]string
	Params  map[string]string
	Headers map[string]string
	Query   map[string]string
}

// Value reads a field from the given location. The second return reports
// whether the field was present at all, which is what Optional keys off.
func (r *Request) Value(loc Location, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	var m map[string]string
	switch loc {
	case LocationBody:
		m = r.Body
	case LocationParams:
		m = r.Params
	case LocationHeaders:
		m = r.Headers
	case LocationQuery:
		m = r.Query
	}
	v, ok := m[name]
	return v, ok
}

// Checked accumulates derived state produced by rules during a run: decoded
// token claims, resolved accounts. It is threaded forward explicitly so
// later rules and the caller can reuse lookups without repeating them.
// Checked is not safe for concurrent mutation; each run owns its instance.
type Checked struct {
	values map[string]any
}

// NewChecked returns an empty accumulator. Use it to seed RunWith when a
// later schema needs state produced by an earlier one.
func NewChecked() *Checked {
	return &Checked{values: make(map[string]any)}
}

// Set stores a derived value under key, replacing any previous value.
func (c *Checked) Set(key string, v any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = v
}

// Value reads a derived value stored by a rule.
func (c *Checked) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Rule validates one field value. A nil return means the value passed. Rules
// may read sibling fields through req and attach derived state to chk.
// Returning an error that implements StatusCoder with a non-422 status
// aborts the whole run with that error; any other error is recorded as the
// field's failure and aggregated.
type Rule func(ctx context.Context, value string, req *Request, chk *Checked) error

// Field is one entry of a schema: where the value comes from and the rule
// chain it must pass. Rules run in order and stop at the field's first
// failure.
type Field struct {
	Name     string
	In       Location
	Optional bool
	Trim     bool
	Rules    []Rule
}

// Schema is an explicit, fully-specified set of fields to validate. Schemas
// are immutable values; construct them once and reuse them across requests.
type Schema struct {
	Fields []Field
}

// StatusCoder is implemented by rule failures that already carry an HTTP
// status. The pipeline uses it to tell aggregatable failures (422) from
// ones that must propagate unchanged.
type StatusCoder interface {
	error
	StatusCode() int
}

// Error is the aggregate outcome of a schema run with at least one invalid
// field: the first failure message of every such field, keyed by field name.
type Error struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// StatusCode always reports 422 Unprocessable Entity.
func (e *Error) StatusCode() int { return http.StatusUnprocessableEntity }

const aggregateMessage = "Validation error"

// Run validates req against the schema with a fresh accumulator.
func (s Schema) Run(ctx context.Context, req *Request) (*Checked, error) {
	return s.RunWith(ctx, req, NewChecked())
}

// RunWith validates req, threading derived state through chk. Every field
// runs to completion regardless of other fields' outcomes; a field's rule
// chain stops at its first failure. If any rule fails with a non-422
// StatusCoder the run aborts immediately and returns that error unchanged.
// Otherwise all field failures aggregate into a single *Error.
func (s Schema) RunWith(ctx context.Context, req *Request, chk *Checked) (*Checked, error) {
	if chk == nil {
		chk = NewChecked()
	}

	var fieldErrors map[string]string

	for _, f := range s.Fields {
		value, present := req.Value(f.In, f.Name)
		if f.Optional && (!present || value == "") {
			continue
		}
		if f.Trim {
			value = strings.TrimSpace(value)
		}

		for _, rule := range f.Rules {
			err := rule(ctx, value, req, chk)
			if err == nil {
				continue
			}

			var sc StatusCoder
			if errors.As(err, &sc) && sc.StatusCode() != http.StatusUnprocessableEntity {
				return nil, err
			}

			if fieldErrors == nil {
				fieldErrors = make(map[string]string)
			}
			fieldErrors[f.Name] = err.Error()
			break
		}
	}

	if len(fieldErrors) > 0 {
		return nil, &Error{Message: aggregateMessage, Fields: fieldErrors}
	}
	return chk, nil
}
