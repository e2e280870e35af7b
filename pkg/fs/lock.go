package fs

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrWouldBlock is returned by [Locker.TryLock] when the lock is held by
// another process.
var ErrWouldBlock = errors.New("lock would block")

// Locker provides advisory file locking using flock(2).
//
// flock applies to an inode (an open file), not a pathname. All cooperating
// processes must take the lock for it to have effect; processes that ignore
// it are not stopped.
//
// Exclusive locks open the lock file with O_RDWR and create it if absent.
// The lock file is left in place on release so the inode stays stable.
//
// This implementation is Unix-only.
type Locker struct {
	fs FS
}

// NewLocker creates a Locker that uses fsys for file operations.
//
// Custom [FS] implementations must provide a real OS file descriptor via
// [File.Fd], usable with flock.
func NewLocker(fsys FS) *Locker {
	return &Locker{fs: fsys}
}

// Lock represents a held file lock. Call [Lock.Close] to release it.
type Lock struct {
	mu   sync.Mutex
	file File
}

// Close releases the lock and closes the underlying file descriptor.
//
// Close is idempotent - subsequent calls return nil. On Unix, closing the
// descriptor releases the flock even if the explicit unlock fails.
func (lk *Lock) Close() error {
	lk.mu.Lock()
	defer lk.mu.Unlock()

	if lk.file == nil {
		return nil
	}

	fd := int(lk.file.Fd())

	unlockErr := flockRetryEINTR(fd, unix.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking lock: %w", unlockErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return errors.Join(unlockErr, closeErr)
}

// TryLock attempts to acquire an exclusive lock on the file at path without
// blocking. The file is created if it does not exist.
//
// Returns an error satisfying errors.Is with [ErrWouldBlock] if another
// process holds the lock.
func (l *Locker) TryLock(path string) (*Lock, error) {
	file, err := l.fs.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	err = flockRetryEINTR(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		_ = file.Close()

		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrWouldBlock
		}

		return nil, fmt.Errorf("flock: %w", err)
	}

	return &Lock{file: file}, nil
}

// flockRetryEINTR calls flock, retrying while the syscall is interrupted.
func flockRetryEINTR(fd int, how int) error {
	for {
		err := unix.Flock(fd, how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
