// Package walk enumerates files under a set of argument paths, expanding
// directories depth-first and detecting filesystem cycles through
// (device, inode) identity.
//
// Cycles can only arise through directories (symlink loops, bind mounts);
// they are detected by tracking the identity of every directory currently
// being listed and refusing to enter one twice. The bookkeeping uses a
// single stack of tagged frames, so an enter is structurally paired with
// the leave that clears its (device, inode) entry.
package walk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	// ErrAlreadyListed reports a directory whose (device, inode) pair is
	// already on the visiting stack. The subtree is skipped, not retried.
	ErrAlreadyListed = errors.New("walk: not listing already-listed directory")

	// ErrInterrupted reports a walk stopped by the Interrupt poll.
	ErrInterrupted = errors.New("walk: interrupted")
)

// DevIno identifies a directory regardless of the path it was reached by.
type DevIno struct {
	Dev uint64
	Ino uint64
}

// WalkFunc receives each discovered file. info is non-nil exactly when err
// is nil. A non-nil err is a per-path diagnostic (stat failure, unreadable
// or already-listed directory); the walk continues unless the callback
// itself returns a non-nil error, which aborts everything.
type WalkFunc func(path string, info os.FileInfo, err error) error

// Walker expands arguments into a stream of file candidates.
type Walker struct {
	// Stat and ReadDir are the filesystem capabilities; nil selects the
	// os package defaults. Stat follows symlinks, so a symlink to a
	// directory is walked into; the cycle detector is what keeps that
	// bounded. Directory identity is taken from the Sys() of the stat
	// result, so an injected Stat controls cycle detection too.
	Stat    func(string) (os.FileInfo, error)
	ReadDir func(string) ([]os.DirEntry, error)

	// DetectCycles enables the (device, inode) visiting set.
	DetectCycles bool

	// All disables the default skipping of dot-entries inside
	// directories. Arguments themselves are never skipped.
	All bool

	// Ignore holds glob patterns for entries to skip. Hide is the same
	// but is overridden by All.
	Ignore []string
	Hide   []string

	// Interrupt, when non-nil, is polled between directory entries; a
	// true return aborts the walk with ErrInterrupted. Listing a huge
	// directory should not stall signal handling.
	Interrupt func() bool
}

// frame is one stack entry: either a directory waiting to be entered, or
// the leave marker that removes its (device, inode) pair from the visiting
// set once the whole subtree has been processed. Enter frames carry the
// stat result so identity can be derived without another syscall.
type frame struct {
	enter bool
	path  string
	info  os.FileInfo
	di    DevIno
}

// Walk classifies each argument, emits non-directories immediately, and
// then processes queued directories depth-first, most recently queued
// subtree first. Within a directory, files are emitted as they are
// encountered so memory stays flat even on huge directories; only
// subdirectories queue up.
func (w *Walker) Walk(args []string, fn WalkFunc) error {
	stat := w.Stat
	if stat == nil {
		stat = os.Stat
	}
	readDir := w.ReadDir
	if readDir == nil {
		readDir = os.ReadDir
	}

	var stack []frame
	visiting := make(map[DevIno]struct{})

	var dirs []frame
	for _, arg := range args {
		info, err := stat(arg)
		if err != nil {
			if err := fn(arg, nil, fmt.Errorf("cannot access %s: %w", arg, err)); err != nil {
				return err
			}
			continue
		}
		if info.IsDir() {
			dirs = append(dirs, frame{enter: true, path: arg, info: info})
			continue
		}
		if err := fn(arg, info, nil); err != nil {
			return err
		}
	}
	// Reverse so the first argument's subtree is processed first.
	for i := len(dirs) - 1; i >= 0; i-- {
		stack = append(stack, dirs[i])
	}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fr.enter {
			delete(visiting, fr.di)
			continue
		}

		var err error
		stack, err = w.visit(fr.path, fr.info, stack, visiting, stat, readDir, fn)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) visit(dir string, info os.FileInfo, stack []frame, visiting map[DevIno]struct{},
	stat func(string) (os.FileInfo, error),
	readDir func(string) ([]os.DirEntry, error),
	fn WalkFunc) ([]frame, error) {

	if w.DetectCycles {
		di, err := devIno(dir, info)
		if err != nil {
			return stack, fn(dir, nil, fmt.Errorf("cannot determine device and inode of %s: %w", dir, err))
		}
		if _, seen := visiting[di]; seen {
			return stack, fn(dir, nil, fmt.Errorf("%w: %s", ErrAlreadyListed, dir))
		}
		visiting[di] = struct{}{}
		stack = append(stack, frame{di: di})
	}

	entries, err := readDir(dir)
	if err != nil {
		return stack, fn(dir, nil, fmt.Errorf("cannot open directory %s: %w", dir, err))
	}

	var subdirs []frame
	for _, ent := range entries {
		if w.Interrupt != nil && w.Interrupt() {
			return stack, ErrInterrupted
		}
		name := ent.Name()
		if w.ignored(name) {
			continue
		}
		full := filepath.Join(dir, name)
		entInfo, err := stat(full)
		if err != nil {
			if err := fn(full, nil, fmt.Errorf("cannot access %s: %w", full, err)); err != nil {
				return stack, err
			}
			continue
		}
		if entInfo.IsDir() {
			subdirs = append(subdirs, frame{enter: true, path: full, info: entInfo})
			continue
		}
		if err := fn(full, entInfo, nil); err != nil {
			return stack, err
		}
	}

	for i := len(subdirs) - 1; i >= 0; i-- {
		stack = append(stack, subdirs[i])
	}
	return stack, nil
}

func (w *Walker) ignored(name string) bool {
	if !w.All {
		if strings.HasPrefix(name, ".") {
			return true
		}
		if matchAny(w.Hide, name) {
			return true
		}
	}
	return matchAny(w.Ignore, name)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// devIno resolves the (device, inode) pair of a directory from its stat
// result, so injected Stat implementations control identity too. Stat
// follows symlinks, so two routes to the same directory compare equal.
// A FileInfo carrying no raw stat data falls back to a direct syscall.
func devIno(path string, info os.FileInfo) (DevIno, error) {
	switch st := info.Sys().(type) {
	case *unix.Stat_t:
		return DevIno{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, nil
	case *syscall.Stat_t:
		return DevIno{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, nil
	}
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return DevIno{}, err
	}
	return DevIno{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, nil
}
