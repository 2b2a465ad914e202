package apachelog

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultSubpattern = `(\S*)`

	escapedQuote = `\"`
	plainQuote   = `"`
)

var (
	whitespaceRe      = regexp.MustCompile(`[ \t]+`)
	refererOrAgentRe  = regexp.MustCompile(`(?i)Referer|User-Agent`)
	timeDirectiveLike = regexp.MustCompile(`^%.*t$`)
)

// token is a single whitespace separated element of a format string with
// its quote markers removed.
type token struct {
	directive string
	quoted    bool
}

// subpatternRule picks the capture group used for a token. Rules are
// evaluated in order, the first match wins.
type subpatternRule struct {
	match   func(tok token) bool
	pattern string
}

var subpatternRules = []subpatternRule{
	{
		// request line, referer and user agent may contain escaped quotes
		match: func(tok token) bool {
			return tok.quoted && (tok.directive == "%r" || refererOrAgentRe.MatchString(tok.directive))
		},
		pattern: `"([^"\\]*(?:\\.[^"\\]*)*)"`,
	},
	{
		match: func(tok token) bool {
			return tok.quoted
		},
		pattern: `"([^"]*)"`,
	},
	{
		match: func(tok token) bool {
			return timeDirectiveLike.MatchString(tok.directive)
		},
		pattern: `(\[[^\]]+\])`,
	},
	{
		match: func(tok token) bool {
			return tok.directive == "%U"
		},
		pattern: `(.+?)`,
	},
}

// Format is a compiled log format. It is immutable and may be shared
// between goroutines.
type Format struct {
	format  string
	names   []string
	pattern string
	re      *regexp.Regexp
}

// CompileError reports a format string that produced an invalid pattern.
type CompileError struct {
	Format  string
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("cannot compile format %q: %v", e.Format, e.Err)
	}

	return fmt.Sprintf("cannot compile format %q into %q: %v", e.Format, e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compile converts an Apache LogFormat string into a Format. Copy the
// format from the server configuration as is, e.g.
//
//	%h %l %u %t \"%r\" %>s %b \"%{Referer}i\" \"%{User-Agent}i\"
//
// With friendly set fields are named by FieldName, otherwise by the
// directive itself.
func Compile(format string, friendly bool) (*Format, error) {
	normalized := whitespaceRe.ReplaceAllString(strings.TrimSpace(format), " ")
	if normalized == "" {
		return nil, &CompileError{Format: format, Err: fmt.Errorf("format is empty")}
	}

	elements := strings.Split(normalized, " ")

	names := make([]string, 0, len(elements))
	subpatterns := make([]string, 0, len(elements))

	for _, element := range elements {
		tok := tokenize(element)

		if friendly {
			names = append(names, FieldName(tok.directive))
		} else {
			names = append(names, tok.directive)
		}

		subpatterns = append(subpatterns, subpatternFor(tok))
	}

	pattern := "^" + strings.Join(subpatterns, " ") + "$"

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &CompileError{Format: format, Pattern: pattern, Err: err}
	}

	if re.NumSubexp() != len(names) {
		panic(fmt.Sprintf("apachelog: pattern %q has %d groups for %d fields", pattern, re.NumSubexp(), len(names)))
	}

	return &Format{
		format:  normalized,
		names:   names,
		pattern: pattern,
		re:      re,
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(format string, friendly bool) *Format {
	f, err := Compile(format, friendly)
	if err != nil {
		panic(err)
	}

	return f
}

// tokenize strips the quote markers around a format element. Both the
// escaped form used inside LogFormat ("\"%r\"") and bare quotes are
// accepted.
func tokenize(element string) token {
	for _, marker := range []string{escapedQuote, plainQuote} {
		if strings.HasPrefix(element, marker) {
			directive := strings.TrimPrefix(element, marker)
			directive = strings.TrimSuffix(directive, marker)

			return token{directive: directive, quoted: true}
		}
	}

	return token{directive: element}
}

func subpatternFor(tok token) string {
	for _, rule := range subpatternRules {
		if rule.match(tok) {
			return rule.pattern
		}
	}

	return defaultSubpattern
}

// Names returns the field names in directive order.
func (f *Format) Names() []string {
	names := make([]string, len(f.names))
	copy(names, f.names)

	return names
}

// Pattern returns the regular expression built from the format.
func (f *Format) Pattern() string {
	return f.pattern
}

func (f *Format) String() string {
	return f.format
}
