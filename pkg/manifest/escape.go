package manifest

import (
	"fmt"
	"strings"
)

// needsEscape reports whether name contains a byte that must be escaped
// before it can appear on a newline-delimited checksum line.
func needsEscape(name string) bool {
	return strings.ContainsAny(name, "\\\n")
}

// escapeFilename replaces each newline with `\n` and each backslash with
// `\\`. Lines carrying an escaped filename are prefixed with a single
// backslash marker so readers know to reverse the substitution.
func escapeFilename(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '\n':
			b.WriteString(`\n`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(name[i])
		}
	}
	return b.String()
}

// UnescapeFilename reverses escapeFilename. It fails with ErrInvalidEscape
// if a backslash is followed by anything other than 'n' or another
// backslash, or is the final byte of the name.
func UnescapeFilename(name string) (string, error) {
	if !strings.ContainsRune(name, '\\') {
		return name, nil
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if name[i] != '\\' {
			b.WriteByte(name[i])
			continue
		}
		if i == len(name)-1 {
			return "", fmt.Errorf("%w: trailing backslash", ErrInvalidEscape)
		}
		i++
		switch name[i] {
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			return "", fmt.Errorf("%w: \\%c", ErrInvalidEscape, name[i])
		}
	}
	return b.String(), nil
}
