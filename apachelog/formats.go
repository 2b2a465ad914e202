package apachelog

import "fmt"

const (
	// Common Log Format (CLF)
	FormatCommon = `%h %l %u %t \"%r\" %>s %b`

	// CLF with virtual host
	FormatVHCommon = `%v %h %l %u %t \"%r\" %>s %b`

	// NCSA extended/combined, CLF plus referer and user agent
	FormatExtended = `%h %l %u %t \"%r\" %>s %b \"%{Referer}i\" \"%{User-Agent}i\"`

	// nginx default, extended plus gzip ratio
	FormatNginx = `%h %l %u %t \"%r\" %>s %b \"%{Referer}i\" \"%{User-Agent}i\" \"%{gzip-ratio}i\"`
)

// Formats lists the predefined formats by name.
var Formats = map[string]string{
	"common":   FormatCommon,
	"vhcommon": FormatVHCommon,
	"extended": FormatExtended,
	"combined": FormatExtended,
	"nginx":    FormatNginx,
}

// CompileNamed compiles one of the predefined Formats.
func CompileNamed(name string, friendly bool) (*Format, error) {
	format, ok := Formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q", name)
	}

	return Compile(format, friendly)
}

// Lookup returns the predefined format called name, or the argument itself
// when it is not a known name.
func Lookup(nameOrFormat string) string {
	if format, ok := Formats[nameOrFormat]; ok {
		return format
	}

	return nameOrFormat
}
