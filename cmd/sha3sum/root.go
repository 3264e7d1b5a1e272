package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sumtools/sha3sum/pkg/checksum"
	"github.com/sumtools/sha3sum/pkg/config"
	"github.com/sumtools/sha3sum/pkg/verify"
)

// errExitFailure signals a failing exit status after diagnostics have
// already been printed.
var errExitFailure = errors.New("sha3sum: exiting with failure status")

type options struct {
	all           bool
	binary        bool
	check         bool
	length        int
	recursive     bool
	text          bool
	warn          bool
	zero          bool
	tag           bool
	quiet         bool
	statusOnly    bool
	strict        bool
	ignoreMissing bool
	ignore        []string
	hide          []string
	ignoreBackups bool
	configPath    string
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "sha3sum [flags] [file...]",
		Short: "Print or check SHA-3 checksums",
		Long: `Print or check SHA-3 checksums.

With no file, or when a file is -, read standard input. The default mode
prints one line per file: checksum, a space, a character indicating input
mode ('*' for binary, ' ' for text), and the file name.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, o, stdin)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&o.all, "all", "a", false, "do not ignore entries starting with .")
	f.BoolVarP(&o.binary, "binary", "b", false, "read in binary mode")
	f.BoolVarP(&o.check, "check", "c", false, "read checksums from the files and check them")
	f.IntVarP(&o.length, "length", "l", 0, "digest length in bits (224, 256, 384 or 512)")
	f.BoolVarP(&o.recursive, "recursive", "r", false, "create checksums of directory contents")
	f.BoolVarP(&o.text, "text", "t", false, "read in text mode (default)")
	f.BoolVarP(&o.warn, "warn", "w", false, "warn about improperly formatted checksum lines")
	f.BoolVarP(&o.zero, "zero", "z", false, "end each output line with NUL, not newline, and disable file name escaping")
	f.BoolVar(&o.tag, "tag", false, "create a BSD-style checksum")
	f.BoolVar(&o.quiet, "quiet", false, "do not print OK for each successfully verified file")
	f.BoolVar(&o.statusOnly, "status", false, "do not output anything, status code shows success")
	f.BoolVar(&o.strict, "strict", false, "exit non-zero for improperly formatted checksum lines")
	f.BoolVar(&o.ignoreMissing, "ignore-missing", false, "do not fail or report status for missing files")
	f.StringArrayVarP(&o.ignore, "ignore", "I", nil, "do not list entries matching shell pattern")
	f.StringArrayVarP(&o.hide, "hide", "H", nil, "do not list implied entries matching shell pattern (overridden by -a)")
	f.BoolVarP(&o.ignoreBackups, "ignore-backups", "B", false, "do not list entries ending with ~")
	f.StringVar(&o.configPath, "config", "", "defaults file (default: the user config directory)")

	return cmd
}

func run(cmd *cobra.Command, args []string, o *options, stdin io.Reader) error {
	path := o.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	bits := cfg.Length
	if cmd.Flags().Changed("length") {
		switch o.length {
		case 224, 256, 384, 512:
			bits = o.length
		default:
			return fmt.Errorf("sha3sum: invalid length: %d (valid digest lengths are 224, 256, 384 and 512 bits)", o.length)
		}
	}
	tag := cfg.Tag
	if cmd.Flags().Changed("tag") {
		tag = o.tag
	}
	ignore := append(append([]string{}, cfg.Ignore...), o.ignore...)
	hide := append(append([]string{}, cfg.Hide...), o.hide...)
	if o.ignoreBackups {
		ignore = append(ignore, "*~", ".*~")
	}

	if tag && o.text {
		return errors.New("sha3sum: --tag does not support --text mode")
	}
	if o.check {
		switch {
		case o.zero:
			return errors.New("sha3sum: the --zero option is not supported when verifying checksums")
		case tag:
			return errors.New("sha3sum: the --tag option is meaningless when verifying checksums")
		case o.binary || o.text:
			return errors.New("sha3sum: the --binary and --text options are meaningless when verifying checksums")
		}
	} else {
		checkOnly := []struct {
			name string
			set  bool
		}{
			{"--ignore-missing", o.ignoreMissing},
			{"--status", o.statusOnly},
			{"--warn", o.warn},
			{"--quiet", o.quiet},
			{"--strict", o.strict},
		}
		for _, f := range checkOnly {
			if f.set {
				return fmt.Errorf("sha3sum: the %s option is meaningful only when verifying checksums", f.name)
			}
		}
	}

	if o.check {
		return runCheck(cmd, args, o, stdin)
	}

	r := &checksum.Runner{
		Options: checksum.Options{
			Bits:      bits,
			Binary:    o.binary || tag,
			Tag:       tag,
			Recursive: o.recursive,
			Zero:      o.zero,
			All:       o.all,
			Ignore:    ignore,
			Hide:      hide,
		},
		Out:       cmd.OutOrStdout(),
		Diag:      cmd.ErrOrStderr(),
		Stdin:     stdin,
		Interrupt: interrupted.Load,
	}
	if !r.Run(args) {
		return errExitFailure
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string, o *options, stdin io.Reader) error {
	// --status wins over --warn and --quiet, as with the C tool.
	warn, quiet := o.warn, o.quiet
	if o.statusOnly {
		warn, quiet = false, false
	}

	c := &verify.Checker{
		Warn:          warn,
		Quiet:         quiet,
		StatusOnly:    o.statusOnly,
		IgnoreMissing: o.ignoreMissing,
		Out:           cmd.OutOrStdout(),
		Diag:          cmd.ErrOrStderr(),
		Stdin:         stdin,
	}

	if len(args) == 0 {
		args = []string{"-"}
	}
	ok := true
	for _, a := range args {
		res, err := c.CheckFile(a)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "sha3sum: %v\n", err)
			ok = false
			continue
		}
		if !res.Ok(o.strict) {
			ok = false
		}
	}
	if !ok {
		return errExitFailure
	}
	return nil
}
