// Package manifest encodes and decodes checksum manifest lines in the two
// textual formats emitted by the GNU checksum tool family:
//
//	GNU:  <hex>  <*| ><filename>
//	BSD:  SHA3[-bits] (<filename>) = <hex>
//
// Filenames containing a newline or backslash are escaped and the line is
// prefixed with a single backslash marker. Format is the exact inverse of
// (*Parser).Parse for every line it produces.
package manifest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AlgorithmTag is the name prefixed to BSD-style lines.
const AlgorithmTag = "SHA3"

// MaxBits is the widest digest the SHA-3 family produces.
const MaxBits = 512

var (
	// ErrMalformedLine reports a line that is not a checksum line in
	// either format: too short, odd or non-hex digest, missing separators.
	ErrMalformedLine = errors.New("manifest: improperly formatted checksum line")

	// ErrInvalidEscape reports a bad backslash sequence in an escaped
	// filename.
	ErrInvalidEscape = errors.New("manifest: invalid filename escape")

	// ErrMixedFormat reports a BSD-reversed line in a manifest that
	// already established the standard layout. Mixing the two would let
	// an attacker smuggle filenames with leading spaces past a verifier.
	ErrMixedFormat = errors.New("manifest: mixing checksum line formats")
)

// Line is one decoded manifest entry.
type Line struct {
	Algorithm string // "SHA3" for lines carrying a BSD tag, else empty
	Bits      int    // digest width; auto-detected from the hex run in GNU format
	Binary    bool   // '*' indicator (GNU format only)
	Digest    string // hex digest as it appeared on the line
	Filename  string // unescaped filename
}

// Parser decodes manifest lines one at a time. It carries the format lock:
// once a manifest produces a standard-layout line, a later BSD-reversed line
// is rejected with ErrMixedFormat. Use one Parser per manifest.
type Parser struct {
	lock formatLock
}

type formatLock int

const (
	lockNone formatLock = iota
	lockStandard
	lockReversed
)

func isWhite(c byte) bool { return c == ' ' || c == '\t' }

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isHexString(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return len(s) > 0
}

// Parse decodes one line (without its trailing newline).
func (p *Parser) Parse(s string) (*Line, error) {
	i := 0
	for i < len(s) && isWhite(s[i]) {
		i++
	}

	escaped := false
	if i < len(s) && s[i] == '\\' {
		escaped = true
		i++
	}

	if strings.HasPrefix(s[i:], AlgorithmTag) {
		return parseBSD(s[i:], escaped)
	}
	return p.parseGNU(s, i, escaped)
}

// parseBSD decodes "SHA3[-bits] (filename) = hex". s starts at the tag.
func parseBSD(s string, escaped bool) (*Line, error) {
	i := len(AlgorithmTag)

	// The algorithm token runs to the first whitespace, '-' or '('. Any
	// variant suffix beyond the bare tag is not ours.
	j := i
	for j < len(s) && !isWhite(s[j]) && s[j] != '-' && s[j] != '(' {
		j++
	}
	if j != i {
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrMalformedLine, s[:j])
	}

	bits := MaxBits
	if j < len(s) && s[j] == '-' {
		j++
		start := j
		for j < len(s) && '0' <= s[j] && s[j] <= '9' {
			j++
		}
		v, err := strconv.Atoi(s[start:j])
		if err != nil || v <= 0 || v > MaxBits || v%8 != 0 {
			return nil, fmt.Errorf("%w: invalid digest length %q", ErrMalformedLine, s[start:j])
		}
		bits = v
	}

	if j < len(s) && s[j] == ' ' {
		j++
	}
	if j >= len(s) || s[j] != '(' {
		return nil, fmt.Errorf("%w: missing '('", ErrMalformedLine)
	}
	j++

	rest := s[j:]
	closeParen := strings.LastIndexByte(rest, ')')
	if closeParen < 0 {
		return nil, fmt.Errorf("%w: missing ')'", ErrMalformedLine)
	}
	name := rest[:closeParen]
	if escaped {
		var err error
		if name, err = UnescapeFilename(name); err != nil {
			return nil, err
		}
	}

	k := closeParen + 1
	for k < len(rest) && isWhite(rest[k]) {
		k++
	}
	if k >= len(rest) || rest[k] != '=' {
		return nil, fmt.Errorf("%w: missing '='", ErrMalformedLine)
	}
	k++
	for k < len(rest) && isWhite(rest[k]) {
		k++
	}

	digest := rest[k:]
	if len(digest) != bits/4 || !isHexString(digest) {
		return nil, fmt.Errorf("%w: digest is not %d hex digits", ErrMalformedLine, bits/4)
	}

	return &Line{
		Algorithm: AlgorithmTag,
		Bits:      bits,
		Digest:    digest,
		Filename:  name,
	}, nil
}

// parseGNU decodes "<hex> <*| ><filename>", auto-detecting the digest width
// from the maximal hex run, and the BSD-reversed variant of the same layout
// where the indicator column is absent.
func (p *Parser) parseGNU(s string, i int, escaped bool) (*Line, error) {
	start := i
	for i < len(s) && isHexDigit(s[i]) {
		i++
	}
	hexLen := i - start
	if hexLen < 2 || hexLen%2 != 0 || hexLen > MaxBits/4 {
		return nil, fmt.Errorf("%w: bad hex digest run", ErrMalformedLine)
	}
	digest := s[start:i]
	bits := hexLen * 4

	if i >= len(s) || !isWhite(s[i]) {
		return nil, fmt.Errorf("%w: digest not followed by whitespace", ErrMalformedLine)
	}
	i++

	binary := false
	if i >= len(s) || len(s)-i == 1 || (s[i] != ' ' && s[i] != '*') {
		// Reversed layout: the filename begins right after the single
		// separator, with no indicator column.
		if p.lock == lockStandard {
			return nil, ErrMixedFormat
		}
		p.lock = lockReversed
	} else if p.lock != lockReversed {
		p.lock = lockStandard
		binary = s[i] == '*'
		i++
	}

	name := s[i:]
	if escaped {
		var err error
		if name, err = UnescapeFilename(name); err != nil {
			return nil, err
		}
	}

	return &Line{
		Bits:     bits,
		Binary:   binary,
		Digest:   digest,
		Filename: name,
	}, nil
}

// Format encodes l as one manifest line, without a trailing delimiter.
// With tag set, the BSD layout is produced; the "-bits" suffix is emitted
// only for non-default widths. With escape set, filenames containing a
// newline or backslash are escaped and the line gains its leading backslash
// marker; callers using a NUL delimiter pass escape=false.
func Format(l *Line, tag, escape bool) string {
	esc := escape && needsEscape(l.Filename)
	name := l.Filename
	if esc {
		name = escapeFilename(name)
	}

	var b strings.Builder
	if esc {
		b.WriteByte('\\')
	}
	if tag {
		algo := l.Algorithm
		if algo == "" {
			algo = AlgorithmTag
		}
		b.WriteString(algo)
		if l.Bits > 0 && l.Bits < MaxBits {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(l.Bits))
		}
		b.WriteString(" (")
		b.WriteString(name)
		b.WriteString(") = ")
		b.WriteString(l.Digest)
	} else {
		b.WriteString(l.Digest)
		b.WriteByte(' ')
		if l.Binary {
			b.WriteByte('*')
		} else {
			b.WriteByte(' ')
		}
		b.WriteString(name)
	}
	return b.String()
}
