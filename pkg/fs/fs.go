// Package fs provides the filesystem seam used by the cache packages.
//
// The main types are:
//   - [FS]: interface for the filesystem operations the cache performs
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation backed by the [os] package
//   - [Chaos]: testing implementation that injects faults at configurable rates
//   - [StrictTestFS]: test wrapper that fails the test on unexpected real errors
//
// Example usage:
//
//	fsys := fs.NewReal()
//	f, err := fsys.Open("journal")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	// Works with all stdlib io functions:
//	r := bufio.NewReader(f)
package fs

import (
	"io"
	"os"
)

// File represents an OS-backed open file descriptor.
//
// The interface is satisfied by [os.File] and can be passed to any standard
// library function that accepts [io.Reader], [io.Writer], [io.Seeker], or
// [io.Closer].
//
// Like [os.File], a [File] opened read-only returns an error from Write.
// Implementations must be safe for concurrent use by multiple goroutines.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the file descriptor. See [os.File.Fd].
	// Used for low-level operations like [syscall.Flock].
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error
}

// FS defines the filesystem operations used by the cache.
//
// Three implementations ship with this package:
//   - [Real]: production use, wraps the [os] package
//   - [Chaos]: testing use, injects faults
//   - [StrictTestFS]: testing use, traces operations and fails on real errors
//
// All methods mirror their [os] equivalents but can be intercepted for
// testing with fault injection.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// Create creates or truncates a file for writing. See [os.Create].
	Create(path string) (File, error)

	// OpenFile opens a file with the given flags and permissions.
	// See [os.OpenFile]. Use this for append or exclusive-create modes.
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to path atomically via a temp file and
	// rename, so readers never observe a partial write.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// ReadDir reads a directory and returns its entries sorted by name.
	// See [os.ReadDir].
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// RemoveAll deletes a path and any children. See [os.RemoveAll].
	RemoveAll(path string) error

	// Rename moves oldpath to newpath. See [os.Rename].
	// Atomic when both paths are on the same filesystem.
	Rename(oldpath, newpath string) error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
