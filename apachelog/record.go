package apachelog

import (
	"fmt"
	"strings"
)

// Record holds the raw field values of one log line. Values are never
// converted, callers interpret them.
type Record struct {
	names  []string
	fields map[string]string
}

func NewRecord() *Record {
	return &Record{
		fields: map[string]string{},
	}
}

// Get returns the value of field. For formats with repeated directives
// the last value wins.
func (r *Record) Get(field string) (string, bool) {
	str, ok := r.fields[field]
	return str, ok
}

// Value is Get without the presence flag.
func (r *Record) Value(field string) string {
	return r.fields[field]
}

// Set stores a value, new fields are appended after the parsed ones.
func (r *Record) Set(field, v string) {
	if _, ok := r.fields[field]; !ok {
		r.names = append(r.names, field)
	}

	r.fields[field] = v
}

// EachField calls fn for every field in format order.
func (r *Record) EachField(fn func(key, value string)) {
	for _, name := range r.names {
		fn(name, r.fields[name])
	}
}

func (r *Record) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)

	return names
}

func (r *Record) Len() int {
	return len(r.names)
}

// Map returns a copy of the fields.
func (r *Record) Map() map[string]string {
	m := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		m[k] = v
	}

	return m
}

func (r *Record) String() string {
	parts := make([]string, 0, len(r.names))

	r.EachField(func(key, value string) {
		parts = append(parts, fmt.Sprintf("%s=%q", key, value))
	})

	return strings.Join(parts, " ")
}
