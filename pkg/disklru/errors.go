package disklru

import "errors"

// Sentinel errors returned by disklru operations.
//
// Callers should use [errors.Is] to check error types. Everything below is
// a programming error: it indicates misuse of the API, not a condition the
// caller can retry. Filesystem errors are returned unchanged and are not
// wrapped in any of these sentinels.
var (
	// ErrClosed indicates the [Cache] has been closed.
	//
	// Read, Edit, Remove and RebuildJournal on a closed cache fail
	// immediately with this error.
	ErrClosed = errors.New("disklru: cache is closed")

	// ErrInvalidKey indicates a key containing a space, newline, carriage
	// return, path separator, or NUL, or an empty key.
	ErrInvalidKey = errors.New("disklru: invalid key")

	// ErrInvalidIndex indicates a value index outside [0, ValueCount).
	ErrInvalidIndex = errors.New("disklru: value index out of range")

	// ErrInvalidOptions indicates invalid [Options] passed to [Open].
	ErrInvalidOptions = errors.New("disklru: invalid options")

	// ErrStaleEditor indicates an [Editor] that has already been committed
	// or aborted, or whose entry was taken over after Close.
	ErrStaleEditor = errors.New("disklru: editor no longer owns its entry")

	// ErrIncompleteEdit indicates a first-time commit that did not supply
	// every value. The wrapped message names the first missing index.
	//
	// The edit is aborted and the entry removed before this is returned.
	ErrIncompleteEdit = errors.New("disklru: edit did not create every value")
)

// errCorruptJournal marks a journal that failed header or record
// validation during recovery. It never escapes [Open]: the directory is
// reset and the cache restarts empty.
var errCorruptJournal = errors.New("disklru: corrupt journal")
