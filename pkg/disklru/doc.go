// Package disklru provides a durable, size-bounded LRU cache backed by a
// directory on a local filesystem.
//
// Each cache entry has a string key and a fixed, cache-wide number of
// values. Values are byte streams. The cache survives process restart: its
// in-memory index is rebuilt from an append-only journal plus the data
// files it references.
//
// # Basic Usage
//
//	cache, err := disklru.Open(disklru.Options{
//	    Dir:        "/var/cache/thumbs",
//	    ValueCount: 2,
//	    MaxSize:    64 << 20,
//	})
//	if err != nil {
//	    // I/O error; corruption is recovered internally by resetting the
//	    // directory and never surfaces here
//	}
//	defer cache.Close()
//
//	// Write
//	ed, ok, err := cache.Edit("key")
//	if ok {
//	    ed.Set(0, "hello")
//	    ed.Set(1, "world")
//	    ed.Commit()
//	}
//
//	// Read
//	snap, ok, err := cache.Read("key")
//	if ok {
//	    defer snap.Close()
//	    v, _ := snap.GetString(0)
//	}
//
// Creating an entry requires a value for every index before the first
// commit. Updating an existing entry may write any subset; untouched
// indices keep their previous value. Committing is atomic: a read observes
// the full set of values as they were before or after the commit, never a
// mix.
//
// # Concurrency
//
// A Cache may be shared by multiple goroutines; a single cache-wide mutex
// serializes metadata operations and file-handle acquisition. Reading bytes
// from a [Snapshot] and writing bytes through an [Editor] stream happen
// outside the mutex. At most one Editor exists per key at a time.
//
// The cache directory must be exclusive to one Cache in one process.
// Multi-process sharing is unsupported and not detected.
//
// # Error Handling
//
// Absence and contention are reported as a false ok-value, not an error.
// Programmer errors ([ErrClosed], [ErrInvalidKey], [ErrStaleEditor],
// [ErrIncompleteEdit], [ErrInvalidIndex]) are sentinel errors checked with
// errors.Is. Filesystem errors propagate unchanged. A corrupt journal is
// handled inside [Open] by resetting the directory to an empty cache.
package disklru
