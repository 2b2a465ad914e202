package apachelog

import "strings"

const timeDirective = "%{}t"

// directiveNames maps mod_log_config directives to friendly field names.
// Parameterized directives are stored with an empty parameter, %{Foobar}C
// is looked up as %{}C.
var directiveNames = map[string]string{
	"%a":   "remote_ip",
	"%A":   "local_ip",
	"%B":   "response_bytes",
	"%b":   "response_bytes_clf",
	"%{}C": "cookie",
	"%D":   "response_time_us",
	"%{}e": "env",
	"%f":   "filename",
	"%h":   "remote_host",
	"%H":   "request_protocol",
	"%{}i": "header",
	"%k":   "keepalive_num",
	"%l":   "remote_logname",
	"%m":   "request_method",
	"%{}n": "note",
	"%{}o": "reply_header",
	"%p":   "server_port",
	// canonical, local or remote
	"%{}p": "port",
	"%P":   "process_id",
	// pid, tid or hextid
	"%{}P": "pid",
	"%q":   "query_string",
	"%r":   "first_line",
	"%R":   "response_handler",
	"%s":   "status",
	"%>s":  "last_status",
	"%t":   "time",
	// strftime(3) layout, kept verbatim in the suffix
	"%{}t": "time",
	"%T":   "response_time_sec",
	"%u":   "remote_user",
	"%U":   "url_path",
	"%v":   "canonical_server_name",
	"%V":   "server_name_config",
	"%X":   "completed_connection_status",
	// mod_logio
	"%I":   "bytes_received",
	"%O":   "bytes_sent",
}

// FieldName returns the friendly name of a format directive.
//
// For %{PARAM}X directives the name of %{}X is suffixed with "_PARAM",
// hyphens in PARAM become underscores unless X is the time directive.
// Unknown directives are returned unchanged.
func FieldName(directive string) string {
	name, param := splitDirective(directive)

	base, ok := directiveNames[name]
	if !ok {
		return directive
	}

	if param == "" && name == directive {
		return base
	}

	if name != timeDirective {
		param = strings.ReplaceAll(param, "-", "_")
	}

	return base + "_" + param
}

// splitDirective turns %{PARAM}X into (%{}X, PARAM). Other directives are
// returned as is with an empty parameter.
func splitDirective(directive string) (string, string) {
	if !strings.HasPrefix(directive, "%{") || len(directive) < 4 {
		return directive, ""
	}

	end := strings.LastIndexByte(directive, '}')
	if end != len(directive)-2 {
		return directive, ""
	}

	return "%{}" + directive[len(directive)-1:], directive[2:end]
}
