package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGNUStandard(t *testing.T) {
	var p Parser
	l, err := p.Parse("a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a  empty.txt")
	require.NoError(t, err)
	require.Equal(t, 256, l.Bits)
	require.False(t, l.Binary)
	require.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", l.Digest)
	require.Equal(t, "empty.txt", l.Filename)
}

func TestParseGNUBinaryIndicator(t *testing.T) {
	var p Parser
	l, err := p.Parse("3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532 *abc.bin")
	require.NoError(t, err)
	require.True(t, l.Binary)
	require.Equal(t, "abc.bin", l.Filename)
}

func TestParseAutoDetectsWidth(t *testing.T) {
	var p Parser
	for _, tc := range []struct {
		hexLen, bits int
	}{{56, 224}, {64, 256}, {96, 384}, {128, 512}, {8, 32}} {
		hex := make([]byte, tc.hexLen)
		for i := range hex {
			hex[i] = 'a'
		}
		l, err := p.Parse(string(hex) + "  f")
		require.NoError(t, err)
		require.Equal(t, tc.bits, l.Bits, "hex run of %d digits", tc.hexLen)
	}
}

func TestParseBSDTagged(t *testing.T) {
	var p Parser

	l, err := p.Parse("SHA3-256 (file name.txt) = 3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532")
	require.NoError(t, err)
	require.Equal(t, "SHA3", l.Algorithm)
	require.Equal(t, 256, l.Bits)
	require.Equal(t, "file name.txt", l.Filename)

	// No length suffix means the maximum width.
	hex := make([]byte, 128)
	for i := range hex {
		hex[i] = '0'
	}
	l, err = p.Parse("SHA3 (x) = " + string(hex))
	require.NoError(t, err)
	require.Equal(t, 512, l.Bits)

	// Parenthesized filenames keep everything up to the last ')'.
	l, err = p.Parse("SHA3-256 (a (weird) name) = 3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532")
	require.NoError(t, err)
	require.Equal(t, "a (weird) name", l.Filename)
}

func TestParseBSDRejectsBadLength(t *testing.T) {
	var p Parser
	for _, line := range []string{
		"SHA3-0 (f) = 00",
		"SHA3-513 (f) = 00",
		"SHA3-100 (f) = 00",
		"SHA3- (f) = 00",
	} {
		_, err := p.Parse(line)
		require.ErrorIs(t, err, ErrMalformedLine, "line %q", line)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, tc := range []struct {
		name, line string
	}{
		{"empty", ""},
		{"comment-like junk", "not a checksum line"},
		{"odd hex run", "abc  file"},
		{"hex too long", string(make132()) + "  file"},
		{"no separator", "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"},
		{"bsd missing paren", "SHA3-256 file) = 00"},
		{"bsd missing equals", "SHA3-256 (file) 00"},
		{"bsd digest wrong width", "SHA3-256 (file) = abcd"},
	} {
		var p Parser
		_, err := p.Parse(tc.line)
		require.ErrorIs(t, err, ErrMalformedLine, tc.name)
	}
}

func make132() []byte {
	b := make([]byte, 132)
	for i := range b {
		b[i] = 'e'
	}
	return b
}

func TestParseEscapedFilename(t *testing.T) {
	var p Parser
	l, err := p.Parse(`\3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532  new\nline\\path`)
	require.NoError(t, err)
	require.Equal(t, "new\nline\\path", l.Filename)
}

func TestParseInvalidEscape(t *testing.T) {
	var p Parser
	for _, name := range []string{`bad\tescape`, `trailing\`} {
		_, err := p.Parse(`\3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532  ` + name)
		require.ErrorIs(t, err, ErrInvalidEscape, "filename %q", name)
	}
}

func TestMixedFormatRejected(t *testing.T) {
	var p Parser

	// First line establishes the standard layout.
	_, err := p.Parse("3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532  a")
	require.NoError(t, err)

	// A reversed line (no indicator column) must now be rejected.
	_, err = p.Parse("3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532 noindicator")
	require.ErrorIs(t, err, ErrMixedFormat)
}

func TestReversedFormatLocksIn(t *testing.T) {
	var p Parser

	l, err := p.Parse("3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532 plain")
	require.NoError(t, err)
	require.Equal(t, "plain", l.Filename)
	require.False(t, l.Binary)

	// Once reversed, an indicator-looking column is part of the filename.
	l, err = p.Parse("3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532 *starred")
	require.NoError(t, err)
	require.Equal(t, "*starred", l.Filename)
}

func TestFormatParseRoundTrip(t *testing.T) {
	digest256 := "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"
	digest512 := digest256 + digest256

	cases := []struct {
		name string
		line Line
		tag  bool
	}{
		{"gnu text", Line{Bits: 256, Digest: digest256, Filename: "plain.txt"}, false},
		{"gnu binary", Line{Bits: 256, Binary: true, Digest: digest256, Filename: "bin"}, false},
		{"gnu newline in name", Line{Bits: 256, Digest: digest256, Filename: "a\nb"}, false},
		{"gnu backslash in name", Line{Bits: 256, Digest: digest256, Filename: `a\b`}, false},
		{"gnu both", Line{Bits: 256, Digest: digest256, Filename: "x\\\ny"}, false},
		{"bsd", Line{Algorithm: "SHA3", Bits: 256, Digest: digest256, Filename: "f.txt"}, true},
		{"bsd max width", Line{Algorithm: "SHA3", Bits: 512, Digest: digest512, Filename: "f"}, true},
		{"bsd escaped", Line{Algorithm: "SHA3", Bits: 256, Digest: digest256, Filename: "n\nl"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			encoded := Format(&tc.line, tc.tag, true)
			got, err := p.Parse(encoded)
			require.NoError(t, err, "encoded line %q", encoded)
			require.Equal(t, &tc.line, got, "round trip through %q", encoded)
		})
	}
}

func TestFormatNoEscapeWithNulDelimiter(t *testing.T) {
	l := Line{Bits: 256, Digest: "00", Filename: "a\nb"}
	out := Format(&l, false, false)
	require.Equal(t, "00  a\nb", out)
	require.NotContains(t, out, `\n`)
}

func TestUnescapeFilename(t *testing.T) {
	got, err := UnescapeFilename(`a\nb\\c`)
	require.NoError(t, err)
	require.Equal(t, "a\nb\\c", got)

	_, err = UnescapeFilename(`a\qb`)
	require.ErrorIs(t, err, ErrInvalidEscape)

	_, err = UnescapeFilename(`a\`)
	require.ErrorIs(t, err, ErrInvalidEscape)
}
