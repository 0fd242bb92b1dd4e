package disc

import (
	"bufio"
	"strconv"
	"strings"
)

// robotLine is one `PREFIX:field,field,...` line of makemkvcon -r output.
type robotLine struct {
	prefix string
	fields []string
}

func parseRobotLine(line string) (robotLine, bool) {
	line = strings.TrimSpace(line)
	colon := strings.IndexByte(line, ':')
	if colon <= 0 {
		return robotLine{}, false
	}
	prefix := line[:colon]
	for _, r := range prefix {
		if r < 'A' || r > 'Z' {
			return robotLine{}, false
		}
	}
	return robotLine{prefix: prefix, fields: splitFields(line[colon+1:])}, true
}

// splitFields splits on commas outside double quotes and unquotes each field.
func splitFields(payload string) []string {
	var (
		fields  []string
		current strings.Builder
		inQuote bool
	)
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case c == ',' && !inQuote:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	fields = append(fields, current.String())
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func (l robotLine) int(i int) (int, bool) {
	if i >= len(l.fields) {
		return 0, false
	}
	v, err := strconv.Atoi(l.fields[i])
	if err != nil {
		return 0, false
	}
	return v, true
}

func (l robotLine) last() string {
	if len(l.fields) == 0 {
		return ""
	}
	return l.fields[len(l.fields)-1]
}

// Message is a decoded MSG line. Params are the printf arguments that
// follow the format string.
type Message struct {
	Code   int
	Text   string
	Params []string
}

// ParseMessage decodes `MSG:code,flags,count,"text",...`.
func ParseMessage(line string) (Message, bool) {
	parsed, ok := parseRobotLine(line)
	if !ok || parsed.prefix != "MSG" {
		return Message{}, false
	}
	code, ok := parsed.int(0)
	if !ok {
		return Message{}, false
	}
	msg := Message{Code: code}
	if len(parsed.fields) > 3 {
		msg.Text = parsed.fields[3]
	}
	if len(parsed.fields) > 5 {
		msg.Params = parsed.fields[5:]
	}
	return msg, true
}

// Read-error message codes.
const (
	msgReadError     = 2003
	msgOpenFailed    = 5010
	msgCopyProtected = 5003
)

// ExtractWarnings returns hardware and read error lines from makemkvcon
// output. Bare `Error ...` lines come from the SCSI layer.
func ExtractWarnings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	var warnings []string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Error ") {
			warnings = append(warnings, line)
			continue
		}
		msg, ok := ParseMessage(line)
		if !ok {
			continue
		}
		switch msg.Code {
		case msgReadError, msgOpenFailed, msgCopyProtected:
			if msg.Text != "" {
				warnings = append(warnings, msg.Text)
			}
		}
	}
	return warnings
}

var errorKeywords = []string{
	"too old", "registration key", "failed", "error", "copy protection",
	"no disc", "not found", "read error", "i/o error", "timeout",
}

// ErrorMessage picks the most useful line from a failed run: the first MSG
// text naming a failure, else the first non-empty line.
func ErrorMessage(stdout, stderr []byte) string {
	combined := strings.TrimSpace(string(stderr) + "\n" + string(stdout))
	if combined == "" {
		return ""
	}
	scanner := bufio.NewScanner(strings.NewReader(combined))
	for scanner.Scan() {
		msg, ok := ParseMessage(scanner.Text())
		if !ok || msg.Text == "" {
			continue
		}
		lower := strings.ToLower(msg.Text)
		for _, keyword := range errorKeywords {
			if strings.Contains(lower, keyword) {
				return msg.Text
			}
		}
	}
	scanner = bufio.NewScanner(strings.NewReader(combined))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return combined
}
