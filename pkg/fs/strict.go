package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// TestBuilder is the subset of [testing.T] used by [StrictTestFS].
//
// This keeps [StrictTestFS] usable from tests in other packages without
// depending on _test.go files.
type TestBuilder interface {
	// [testing.T.Helper]
	Helper()
	// [testing.T.Cleanup]
	Cleanup(func())
	// [testing.T.Failed]
	Failed() bool
	// [testing.T.Logf]
	Logf(format string, args ...any)
	// [testing.T.Fatalf]
	Fatalf(format string, args ...any)
}

// StrictTestFS wraps an [FS] for tests:
//   - Records a bounded trace of recent FS operations
//   - Fails the test on any non-injected (real) filesystem error
//
// Use it to detect unexpected environment failures while running [Chaos].
// ENOENT is tolerated because probing for absent files is part of normal
// cache operation.
type StrictTestFS struct {
	tb TestBuilder
	fs FS

	mu     sync.Mutex
	trace  []string
	seq    uint64
	maxLen int
}

// NewStrictTestFS creates a StrictTestFS wrapping fsys.
//
// On test failure, the trace of recent FS operations is logged via
// tb.Cleanup.
func NewStrictTestFS(tb TestBuilder, fsys FS) *StrictTestFS {
	tb.Helper()

	s := &StrictTestFS{tb: tb, fs: fsys, maxLen: 200}

	tb.Cleanup(func() {
		if tb.Failed() {
			if trace := s.Trace(); trace != "" {
				tb.Logf("fs trace:\n%s", trace)
			}
		}
	})

	return s
}

// Trace returns a formatted string of recent FS operations.
func (s *StrictTestFS) Trace() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return strings.Join(s.trace, "\n")
}

func (s *StrictTestFS) record(op, path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++

	line := fmt.Sprintf("#%d %s path=%q", s.seq, op, path)
	if err == nil {
		line += " ok"
	} else {
		line += fmt.Sprintf(" err=%v injected=%t", err, IsInjected(err))
	}

	s.trace = append(s.trace, line)
	if len(s.trace) > s.maxLen {
		s.trace = s.trace[len(s.trace)-s.maxLen:]
	}
}

// wrap traces the operation and fatals on real (non-injected) errors.
func (s *StrictTestFS) wrap(op, path string, err error) error {
	s.tb.Helper()
	s.record(op, path, err)

	if err != nil && !IsInjected(err) && !errors.Is(err, io.EOF) && !os.IsNotExist(err) {
		s.tb.Fatalf("strictfs: underlying filesystem error: %v\n%s", err, s.Trace())
	}

	return err
}

func (s *StrictTestFS) wrapFile(op, path string, f File, err error) (File, error) {
	s.tb.Helper()

	if err := s.wrap(op, path, err); err != nil {
		return nil, err
	}

	return &strictFile{s: s, f: f, path: path}, nil
}

func (s *StrictTestFS) Open(path string) (File, error) {
	s.tb.Helper()
	f, err := s.fs.Open(path)

	return s.wrapFile("open", path, f, err)
}

func (s *StrictTestFS) Create(path string) (File, error) {
	s.tb.Helper()
	f, err := s.fs.Create(path)

	return s.wrapFile("create", path, f, err)
}

func (s *StrictTestFS) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	s.tb.Helper()
	f, err := s.fs.OpenFile(path, flag, perm)

	return s.wrapFile("openfile", path, f, err)
}

func (s *StrictTestFS) ReadFile(path string) ([]byte, error) {
	s.tb.Helper()
	data, err := s.fs.ReadFile(path)

	return data, s.wrap("readfile", path, err)
}

func (s *StrictTestFS) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	s.tb.Helper()

	return s.wrap("writefileatomic", path, s.fs.WriteFileAtomic(path, data, perm))
}

func (s *StrictTestFS) ReadDir(path string) ([]os.DirEntry, error) {
	s.tb.Helper()
	entries, err := s.fs.ReadDir(path)

	return entries, s.wrap("readdir", path, err)
}

func (s *StrictTestFS) MkdirAll(path string, perm os.FileMode) error {
	s.tb.Helper()

	return s.wrap("mkdirall", path, s.fs.MkdirAll(path, perm))
}

func (s *StrictTestFS) Stat(path string) (os.FileInfo, error) {
	s.tb.Helper()
	info, err := s.fs.Stat(path)

	return info, s.wrap("stat", path, err)
}

func (s *StrictTestFS) Exists(path string) (bool, error) {
	s.tb.Helper()
	exists, err := s.fs.Exists(path)

	return exists, s.wrap("exists", path, err)
}

func (s *StrictTestFS) Remove(path string) error {
	s.tb.Helper()

	return s.wrap("remove", path, s.fs.Remove(path))
}

func (s *StrictTestFS) RemoveAll(path string) error {
	s.tb.Helper()

	return s.wrap("removeall", path, s.fs.RemoveAll(path))
}

func (s *StrictTestFS) Rename(oldpath, newpath string) error {
	s.tb.Helper()

	return s.wrap("rename", oldpath+" -> "+newpath, s.fs.Rename(oldpath, newpath))
}

// Compile-time interface check.
var _ FS = (*StrictTestFS)(nil)

// strictFile wraps a [File] to trace and validate errors.
type strictFile struct {
	s    *StrictTestFS
	f    File
	path string
}

var _ File = (*strictFile)(nil)

func (sf *strictFile) Read(p []byte) (int, error) {
	sf.s.tb.Helper()
	n, err := sf.f.Read(p)

	return n, sf.s.wrap("file.read", sf.path, err)
}

func (sf *strictFile) Write(p []byte) (int, error) {
	sf.s.tb.Helper()
	n, err := sf.f.Write(p)

	return n, sf.s.wrap("file.write", sf.path, err)
}

func (sf *strictFile) Close() error {
	sf.s.tb.Helper()

	return sf.s.wrap("file.close", sf.path, sf.f.Close())
}

func (sf *strictFile) Seek(offset int64, whence int) (int64, error) {
	sf.s.tb.Helper()
	pos, err := sf.f.Seek(offset, whence)

	return pos, sf.s.wrap("file.seek", sf.path, err)
}

func (sf *strictFile) Fd() uintptr {
	return sf.f.Fd()
}

func (sf *strictFile) Stat() (os.FileInfo, error) {
	sf.s.tb.Helper()
	info, err := sf.f.Stat()

	return info, sf.s.wrap("file.stat", sf.path, err)
}

func (sf *strictFile) Sync() error {
	sf.s.tb.Helper()

	return sf.s.wrap("file.sync", sf.path, sf.f.Sync())
}
