// Package checksum drives print mode: it expands the argument list into
// files, streams each one through the SHA-3 digest pipeline, and emits one
// manifest line per file.
package checksum

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/sumtools/sha3sum/pkg/manifest"
	"github.com/sumtools/sha3sum/pkg/sha3"
	"github.com/sumtools/sha3sum/pkg/walk"
)

// Options configures a print-mode run.
type Options struct {
	Bits      int  // digest width; 0 means the 512-bit maximum
	Binary    bool // '*' indicator on output lines
	Tag       bool // BSD-style tagged output
	Recursive bool // expand directories
	Zero      bool // NUL line delimiter, disables filename escaping
	All       bool // do not skip dot-entries while recursing
	Ignore    []string
	Hide      []string
}

// Runner owns one print-mode run. Failures are diagnosed and recorded but
// never stop the remaining arguments from being processed.
type Runner struct {
	Options

	Out   io.Writer // manifest lines; default os.Stdout
	Diag  io.Writer // per-file diagnostics; default os.Stderr
	Stdin io.Reader // the "-" argument; default os.Stdin

	// Interrupt is forwarded to the directory walker.
	Interrupt func() bool
}

func (r *Runner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}

func (r *Runner) diag() io.Writer {
	if r.Diag != nil {
		return r.Diag
	}
	return os.Stderr
}

func (r *Runner) stdin() io.Reader {
	if r.Stdin != nil {
		return r.Stdin
	}
	return os.Stdin
}

func (r *Runner) bits() int {
	if r.Bits == 0 {
		return manifest.MaxBits
	}
	return r.Bits
}

// Run digests every argument (or standard input when none are given) and
// reports whether the whole run succeeded.
func (r *Runner) Run(args []string) bool {
	if len(args) == 0 {
		args = []string{"-"}
	}

	ok := true
	if r.Recursive {
		var paths []string
		for _, a := range args {
			if a == "-" {
				if !r.digestStdin() {
					ok = false
				}
				continue
			}
			paths = append(paths, a)
		}

		w := &walk.Walker{
			DetectCycles: true,
			All:          r.All,
			Ignore:       r.Ignore,
			Hide:         r.Hide,
			Interrupt:    r.Interrupt,
		}
		err := w.Walk(paths, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				fmt.Fprintf(r.diag(), "sha3sum: %v\n", err)
				ok = false
				return nil
			}
			if !r.digestAndPrint(path) {
				ok = false
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(r.diag(), "sha3sum: %v\n", err)
			ok = false
		}
		return ok
	}

	for _, a := range args {
		if a == "-" {
			if !r.digestStdin() {
				ok = false
			}
			continue
		}
		info, err := os.Stat(a)
		if err != nil {
			fmt.Fprintf(r.diag(), "sha3sum: cannot access %s: %v\n", a, err)
			ok = false
			continue
		}
		if info.IsDir() {
			fmt.Fprintf(r.diag(), "sha3sum: %s: is a directory\n", a)
			ok = false
			continue
		}
		if !r.digestAndPrint(a) {
			ok = false
		}
	}
	return ok
}

func (r *Runner) digestAndPrint(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(r.diag(), "sha3sum: %s: %v\n", path, err)
		return false
	}
	defer f.Close()

	sum, err := sha3.SumReader(f, r.bits())
	if err != nil {
		fmt.Fprintf(r.diag(), "sha3sum: %s: %v\n", path, err)
		return false
	}
	r.printLine(path, sum)
	return true
}

func (r *Runner) digestStdin() bool {
	sum, err := sha3.SumReader(r.stdin(), r.bits())
	if err != nil {
		fmt.Fprintf(r.diag(), "sha3sum: standard input: %v\n", err)
		return false
	}
	r.printLine("-", sum)
	return true
}

func (r *Runner) printLine(path string, sum []byte) {
	l := &manifest.Line{
		Algorithm: manifest.AlgorithmTag,
		Bits:      r.bits(),
		Binary:    r.Binary,
		Digest:    hex.EncodeToString(sum),
		Filename:  path,
	}
	delim := byte('\n')
	if r.Zero {
		delim = 0
	}
	fmt.Fprintf(r.out(), "%s%c", manifest.Format(l, r.Tag, !r.Zero), delim)
}
