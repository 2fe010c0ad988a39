package symbols

import "strings"

// normalize trims a symbol file line; blank lines and # comments are dropped.
func normalize(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false
	}
	return line, true
}
