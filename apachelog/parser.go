package apachelog

import (
	"fmt"
	"strings"
)

// ParseError is returned for a line that does not match the format.
// Callers reading a stream usually count it and move on.
type ParseError struct {
	Line    string
	Pattern string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q with the %q regular expression", e.Line, e.Pattern)
}

// Parse splits a single log line into a Record.
func (f *Format) Parse(line string) (*Record, error) {
	line = strings.TrimSpace(line)

	matches := f.re.FindStringSubmatch(line)
	if matches == nil {
		return nil, &ParseError{Line: line, Pattern: f.pattern}
	}

	r := NewRecord()

	for i, name := range f.names {
		r.Set(name, matches[i+1])
	}

	return r, nil
}
