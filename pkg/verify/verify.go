// Package verify reads checksum manifests and checks the named files
// against their recorded digests, aggregating the outcome into counters
// that decide the run's final status.
package verify

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/sumtools/sha3sum/pkg/manifest"
	"github.com/sumtools/sha3sum/pkg/sha3"
)

// Result aggregates the outcome of checking one manifest.
type Result struct {
	ProperlyFormatted  uint64
	Misformatted       uint64
	Matched            uint64
	Mismatched         uint64
	OpenOrReadFailures uint64
}

// Ok reports whether the run succeeded: at least one properly formatted
// line, at least one match, no mismatches, no open or read failures, and
// under strict mode no misformatted lines either.
func (r *Result) Ok(strict bool) bool {
	return r.ProperlyFormatted > 0 &&
		r.Matched > 0 &&
		r.Mismatched == 0 &&
		r.OpenOrReadFailures == 0 &&
		(!strict || r.Misformatted == 0)
}

// Checker verifies manifests. The zero value checks against files on disk
// and writes to stdout/stderr.
type Checker struct {
	Warn          bool // diagnose each misformatted line
	Quiet         bool // suppress OK for verified files
	StatusOnly    bool // no per-file or summary output at all
	IgnoreMissing bool // skip files that do not exist

	Out   io.Writer // per-file OK/FAILED lines; default os.Stdout
	Diag  io.Writer // warnings and errors; default os.Stderr
	Stdin io.Reader // manifest source for "-"; default os.Stdin

	// DigestFile computes the digest of one named file. nil selects the
	// default, which opens the file and streams it through the SHA-3
	// pipeline. missing reports that the file does not exist.
	DigestFile func(path string, bits int) (sum []byte, missing bool, err error)
}

func (c *Checker) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c *Checker) diag() io.Writer {
	if c.Diag != nil {
		return c.Diag
	}
	return os.Stderr
}

func (c *Checker) digestFile(path string, bits int) ([]byte, bool, error) {
	if c.DigestFile != nil {
		return c.DigestFile(path, bits)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, os.IsNotExist(err), err
	}
	defer f.Close()
	sum, err := sha3.SumReader(f, bits)
	if err != nil {
		return nil, false, err
	}
	return sum, false, nil
}

// CheckFile verifies the manifest at path ("-" means standard input).
// Gzip-compressed manifests are detected by their magic bytes and
// decompressed transparently.
func (c *Checker) CheckFile(path string) (*Result, error) {
	var src io.Reader
	name := path
	isStdin := path == "-"
	if isStdin {
		name = "standard input"
		src = c.Stdin
		if src == nil {
			src = os.Stdin
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		src = f
	}

	br := bufio.NewReader(src)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%s: gzip: %w", name, err)
		}
		defer gz.Close()
		return c.Check(gz, name, isStdin)
	}
	return c.Check(br, name, isStdin)
}

// Check verifies one manifest read from r. name labels diagnostics;
// fromStdin rejects manifest entries naming "-". Per-line problems are
// counted, not fatal; only a read error on the manifest itself aborts.
func (c *Checker) Check(r io.Reader, name string, fromStdin bool) (*Result, error) {
	res := &Result{}
	parser := &manifest.Parser{}
	br := bufio.NewReader(r)

	var lineNumber uint64
	for {
		raw, readErr := br.ReadString('\n')
		if len(raw) > 0 {
			lineNumber++
			line := strings.TrimSuffix(raw, "\n")

			// Comment lines begin with '#'. Blank lines fall through
			// and count as misformatted.
			if !strings.HasPrefix(line, "#") {
				c.checkLine(parser, line, name, lineNumber, fromStdin, res)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			fmt.Fprintf(c.diag(), "%s: read error: %v\n", name, readErr)
			return res, fmt.Errorf("%s: read error: %w", name, readErr)
		}
	}

	c.summarize(res, name)
	return res, nil
}

func (c *Checker) checkLine(parser *manifest.Parser, line, name string, lineNumber uint64, fromStdin bool, res *Result) {
	l, err := parser.Parse(line)
	if err != nil || (fromStdin && l.Filename == "-") {
		res.Misformatted++
		if c.Warn {
			fmt.Fprintf(c.diag(), "%s: %d: improperly formatted %s checksum line\n",
				name, lineNumber, manifest.AlgorithmTag)
		}
		return
	}

	res.ProperlyFormatted++

	// Only escape in the edge case producing multiple output lines, to
	// ease automatic processing of the status output.
	needsEscape := !c.StatusOnly && strings.ContainsRune(l.Filename, '\n')

	sum, missing, err := c.digestFile(l.Filename, l.Bits)
	switch {
	case missing && c.IgnoreMissing:
		// Skipped entirely.
	case err != nil:
		res.OpenOrReadFailures++
		if !c.StatusOnly {
			fmt.Fprintf(c.diag(), "sha3sum: %v\n", err)
			c.printFilename(l.Filename, needsEscape)
			fmt.Fprintf(c.out(), ": FAILED open or read\n")
		}
	default:
		match := strings.EqualFold(l.Digest, hex.EncodeToString(sum))
		if match {
			res.Matched++
		} else {
			res.Mismatched++
		}
		if !c.StatusOnly {
			if !match || !c.Quiet {
				c.printFilename(l.Filename, needsEscape)
				if match {
					fmt.Fprintf(c.out(), ": OK\n")
				} else {
					fmt.Fprintf(c.out(), ": FAILED\n")
				}
			}
		}
	}
}

func (c *Checker) printFilename(filename string, escape bool) {
	if escape {
		fmt.Fprintf(c.out(), "\\%s", escapeForOutput(filename))
	} else {
		fmt.Fprint(c.out(), filename)
	}
}

func escapeForOutput(name string) string {
	name = strings.ReplaceAll(name, `\`, `\\`)
	return strings.ReplaceAll(name, "\n", `\n`)
}

func (c *Checker) summarize(res *Result, name string) {
	if res.ProperlyFormatted == 0 {
		// Warn even in status mode: there was nothing to verify.
		fmt.Fprintf(c.diag(), "%s: no properly formatted %s checksum lines found\n",
			name, manifest.AlgorithmTag)
		return
	}
	if c.StatusOnly {
		return
	}
	if n := res.Misformatted; n != 0 {
		fmt.Fprintf(c.diag(), "WARNING: %d %s improperly formatted\n", n, plural(n, "line is", "lines are"))
	}
	if n := res.OpenOrReadFailures; n != 0 {
		fmt.Fprintf(c.diag(), "WARNING: %d listed %s could not be read\n", n, plural(n, "file", "files"))
	}
	if n := res.Mismatched; n != 0 {
		fmt.Fprintf(c.diag(), "WARNING: %d computed %s did NOT match\n", n, plural(n, "checksum", "checksums"))
	}
	if c.IgnoreMissing && res.Matched == 0 {
		fmt.Fprintf(c.diag(), "%s: no file was verified\n", name)
	}
}

func plural(n uint64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
