// internal/bot/text.go
package bot

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// fixEncoding repairs messages from clients that send Windows-1252 text
// instead of UTF-8.
func fixEncoding(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	fixed, err := charmap.Windows1252.NewDecoder().String(s)
	if err == nil && utf8.ValidString(fixed) {
		return fixed
	}
	return strings.ToValidUTF8(s, "")
}

// sanitizeInput turns every kind of whitespace into a single plain space.
func sanitizeInput(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// splitCommand returns the command without its bot suffix ("/balance@mybot")
// and the arguments.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(sanitizeInput(fixEncoding(text)))
	if len(fields) == 0 {
		return "", nil
	}
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	return cmd, fields[1:]
}
