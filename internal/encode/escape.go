package encode

import "strings"

// EscapeText applies the calendar format's TEXT escaping rule: backslash,
// newline, semicolon and comma become backslash escapes. The newline escape
// is a literal lowercase 'n', never a control character.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	r := strings.NewReplacer(
		`\`, `\\`,
		"\n", `\n`,
		";", `\;`,
		",", `\,`,
	)
	return r.Replace(s)
}

// UnescapeText inverts EscapeText. Unrecognized escape sequences keep the
// escaped character as-is; a trailing lone backslash is preserved.
func UnescapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
