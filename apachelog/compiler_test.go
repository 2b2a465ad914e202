package apachelog

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		friendly    bool
		wantNames   []string
		wantPattern string
	}{
		{
			name:        "common raw names",
			format:      FormatCommon,
			wantNames:   []string{"%h", "%l", "%u", "%t", "%r", "%>s", "%b"},
			wantPattern: `^(\S*) (\S*) (\S*) (\[[^\]]+\]) "([^"\\]*(?:\\.[^"\\]*)*)" (\S*) (\S*)$`,
		},
		{
			name:      "extended friendly names",
			format:    FormatExtended,
			friendly:  true,
			wantNames: []string{"remote_host", "remote_logname", "remote_user", "time", "first_line", "last_status", "response_bytes_clf", "header_Referer", "header_User_Agent"},
			wantPattern: `^(\S*) (\S*) (\S*) (\[[^\]]+\]) "([^"\\]*(?:\\.[^"\\]*)*)" (\S*) (\S*) ` +
				`"([^"\\]*(?:\\.[^"\\]*)*)" "([^"\\]*(?:\\.[^"\\]*)*)"$`,
		},
		{
			name:        "quoted plain field",
			format:      `%h \"%{gzip-ratio}i\"`,
			friendly:    true,
			wantNames:   []string{"remote_host", "header_gzip_ratio"},
			wantPattern: `^(\S*) "([^"]*)"$`,
		},
		{
			name:        "bare quotes",
			format:      `%h "%r"`,
			wantNames:   []string{"%h", "%r"},
			wantPattern: `^(\S*) "([^"\\]*(?:\\.[^"\\]*)*)"$`,
		},
		{
			name:        "url path and custom time",
			format:      "  %{%Y-%m-%d}t\t\t%U   %q ",
			friendly:    true,
			wantNames:   []string{"time_%Y-%m-%d", "url_path", "query_string"},
			wantPattern: `^(\[[^\]]+\]) (.+?) (\S*)$`,
		},
		{
			name:        "referer match is case insensitive",
			format:      `\"%{referer}i\"`,
			wantNames:   []string{"%{referer}i"},
			wantPattern: `^"([^"\\]*(?:\\.[^"\\]*)*)"$`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.format, tt.friendly)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}

			if got := f.Names(); !reflect.DeepEqual(got, tt.wantNames) {
				t.Errorf("Compile().Names() = %#v, want %#v", got, tt.wantNames)
			}

			if got := f.Pattern(); got != tt.wantPattern {
				t.Errorf("Compile().Pattern() = %s, want %s", got, tt.wantPattern)
			}
		})
	}
}

func TestCompile_groupsMatchNames(t *testing.T) {
	for name, format := range Formats {
		t.Run(name, func(t *testing.T) {
			f := MustCompile(format, true)

			tokens := len(strings.Fields(format))
			if len(f.Names()) != tokens {
				t.Errorf("got %d names for %d tokens", len(f.Names()), tokens)
			}

			if f.re.NumSubexp() != tokens {
				t.Errorf("got %d groups for %d tokens", f.re.NumSubexp(), tokens)
			}
		})
	}
}

func TestCompile_empty(t *testing.T) {
	_, err := Compile(" \t ", true)

	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("Compile() error = %v, want *CompileError", err)
	}
}

func TestCompileNamed(t *testing.T) {
	if _, err := CompileNamed("nginx", true); err != nil {
		t.Errorf("CompileNamed(nginx) error = %v", err)
	}

	if _, err := CompileNamed("nope", true); err == nil {
		t.Errorf("CompileNamed(nope) error = nil, want error")
	}
}

func TestLookup(t *testing.T) {
	if got := Lookup("common"); got != FormatCommon {
		t.Errorf("Lookup(common) = %q, want %q", got, FormatCommon)
	}

	if got := Lookup("%h %U"); got != "%h %U" {
		t.Errorf("Lookup() = %q, want literal format", got)
	}
}
