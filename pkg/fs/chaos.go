package fs

import (
	"errors"
	iofs "io/fs"
	"math/rand"
	"os"
	"sync"
	"syscall"
)

// InjectedError marks an error as intentionally injected by [Chaos].
//
// It wraps the underlying error so errors.Is/As continue to work. Injected
// errors carry a real syscall.Errno inside a *fs.PathError, so code using
// os.IsNotExist / os.IsPermission behaves the same as with real OS errors.
type InjectedError struct {
	Err error
}

func (e *InjectedError) Error() string {
	return e.Err.Error()
}

func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by
// [Chaos]. Returns false if err is nil.
func IsInjected(err error) bool {
	if err == nil {
		return false
	}

	var injected *InjectedError

	return errors.As(err, &injected)
}

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
type ChaosConfig struct {
	OpenFailRate   float64 // Fail Open/Create/OpenFile
	ReadFailRate   float64 // Fail reads (ReadFile, File.Read)
	WriteFailRate  float64 // Fail writes (WriteFileAtomic, File.Write)
	RemoveFailRate float64 // Fail Remove/RemoveAll
	RenameFailRate float64 // Fail Rename
	StatFailRate   float64 // Fail Stat/Exists/ReadDir
}

// DefaultChaosConfig returns a config with fault rates suitable for
// shaking out error paths without drowning a test in failures.
func DefaultChaosConfig() ChaosConfig {
	return ChaosConfig{
		OpenFailRate:   0.02,
		ReadFailRate:   0.02,
		WriteFailRate:  0.02,
		RemoveFailRate: 0.02,
		RenameFailRate: 0.02,
		StatFailRate:   0.01,
	}
}

// Chaos wraps an [FS] and injects transient failures for testing.
//
// Injected errors are EIO wrapped in [InjectedError] so tests can
// distinguish them from real environment errors with [IsInjected].
//
// Chaos never injects ENOENT: missing-path errors always come from the
// wrapped FS, so injected failures never lie about what exists on disk.
//
// Injection is disabled until [Chaos.Enable] is called, letting tests set up
// fixtures through the same FS without faults.
type Chaos struct {
	fs     FS
	config ChaosConfig

	mu      sync.Mutex
	rng     *rand.Rand
	enabled bool

	// Counters for test verification.
	injected int
}

// NewChaos creates a Chaos filesystem wrapping fsys.
// The seed makes fault injection reproducible.
func NewChaos(fsys FS, seed int64, config ChaosConfig) *Chaos {
	return &Chaos{
		fs:     fsys,
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Enable turns fault injection on or off.
func (c *Chaos) Enable(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = on
}

// InjectedCount returns the number of faults injected so far.
func (c *Chaos) InjectedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.injected
}

// roll decides whether to inject a fault for an operation with the given
// rate, and returns the injected error if so.
func (c *Chaos) roll(op, path string, rate float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || rate <= 0 || c.rng.Float64() >= rate {
		return nil
	}

	c.injected++

	return &InjectedError{Err: &iofs.PathError{
		Op:   op,
		Path: path,
		Err:  syscall.EIO,
	}}
}

func (c *Chaos) Open(path string) (File, error) {
	if err := c.roll("open", path, c.config.OpenFailRate); err != nil {
		return nil, err
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, err
	}

	return &chaosFile{chaos: c, f: f, path: path}, nil
}

func (c *Chaos) Create(path string) (File, error) {
	if err := c.roll("create", path, c.config.OpenFailRate); err != nil {
		return nil, err
	}

	f, err := c.fs.Create(path)
	if err != nil {
		return nil, err
	}

	return &chaosFile{chaos: c, f: f, path: path}, nil
}

func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if err := c.roll("openfile", path, c.config.OpenFailRate); err != nil {
		return nil, err
	}

	f, err := c.fs.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &chaosFile{chaos: c, f: f, path: path}, nil
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if err := c.roll("readfile", path, c.config.ReadFailRate); err != nil {
		return nil, err
	}

	return c.fs.ReadFile(path)
}

func (c *Chaos) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := c.roll("writefileatomic", path, c.config.WriteFailRate); err != nil {
		return err
	}

	return c.fs.WriteFileAtomic(path, data, perm)
}

func (c *Chaos) ReadDir(path string) ([]os.DirEntry, error) {
	if err := c.roll("readdir", path, c.config.StatFailRate); err != nil {
		return nil, err
	}

	return c.fs.ReadDir(path)
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	if err := c.roll("mkdirall", path, c.config.WriteFailRate); err != nil {
		return err
	}

	return c.fs.MkdirAll(path, perm)
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	if err := c.roll("stat", path, c.config.StatFailRate); err != nil {
		return nil, err
	}

	return c.fs.Stat(path)
}

func (c *Chaos) Exists(path string) (bool, error) {
	if err := c.roll("exists", path, c.config.StatFailRate); err != nil {
		return false, err
	}

	return c.fs.Exists(path)
}

func (c *Chaos) Remove(path string) error {
	if err := c.roll("remove", path, c.config.RemoveFailRate); err != nil {
		return err
	}

	return c.fs.Remove(path)
}

func (c *Chaos) RemoveAll(path string) error {
	if err := c.roll("removeall", path, c.config.RemoveFailRate); err != nil {
		return err
	}

	return c.fs.RemoveAll(path)
}

func (c *Chaos) Rename(oldpath, newpath string) error {
	if err := c.roll("rename", oldpath, c.config.RenameFailRate); err != nil {
		return err
	}

	return c.fs.Rename(oldpath, newpath)
}

// Compile-time interface check.
var _ FS = (*Chaos)(nil)

// chaosFile wraps a [File] to inject read/write faults.
type chaosFile struct {
	chaos *Chaos
	f     File
	path  string
}

var _ File = (*chaosFile)(nil)

func (cf *chaosFile) Read(p []byte) (int, error) {
	if err := cf.chaos.roll("file.read", cf.path, cf.chaos.config.ReadFailRate); err != nil {
		return 0, err
	}

	return cf.f.Read(p)
}

func (cf *chaosFile) Write(p []byte) (int, error) {
	if err := cf.chaos.roll("file.write", cf.path, cf.chaos.config.WriteFailRate); err != nil {
		return 0, err
	}

	return cf.f.Write(p)
}

func (cf *chaosFile) Close() error {
	return cf.f.Close()
}

func (cf *chaosFile) Seek(offset int64, whence int) (int64, error) {
	return cf.f.Seek(offset, whence)
}

func (cf *chaosFile) Fd() uintptr {
	return cf.f.Fd()
}

func (cf *chaosFile) Stat() (os.FileInfo, error) {
	if err := cf.chaos.roll("file.stat", cf.path, cf.chaos.config.StatFailRate); err != nil {
		return nil, err
	}

	return cf.f.Stat()
}

func (cf *chaosFile) Sync() error {
	if err := cf.chaos.roll("file.sync", cf.path, cf.chaos.config.WriteFailRate); err != nil {
		return err
	}

	return cf.f.Sync()
}
