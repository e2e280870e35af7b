package disklru

import (
	"bufio"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/calvinalkan/diskcache/pkg/fs"
)

// Options configure opening or creating a cache directory.
type Options struct {
	// Dir is the cache directory. It must be exclusive to this cache;
	// the cache may delete or overwrite any file in it. Created if absent.
	Dir string

	// ValueCount is the fixed number of values per entry. Must match the
	// count the directory was created with; a mismatch is treated as
	// corruption and resets the directory.
	ValueCount int

	// MaxSize bounds the sum of committed value lengths in bytes.
	// Least-recently-used entries are removed to stay at or below it.
	MaxSize int64

	// FS is the filesystem to operate on. Defaults to [fs.NewReal].
	FS fs.FS
}

// Cache is a disk-backed LRU cache handle. Open one per directory per
// process; see the package documentation for the concurrency contract.
type Cache struct {
	mu sync.Mutex

	fsys           fs.FS
	dir            string
	journalPath    string
	journalTmpPath string
	valueCount     int
	maxSize        int64

	// journal is the append handle retained for the cache's lifetime.
	// nil denotes a closed cache.
	journal fs.File
	jw      *bufio.Writer

	index *lruIndex

	// size is the sum of lengths over readable entries.
	size int64

	// journalRecords counts body records in the journal file, used to
	// decide when to compact.
	journalRecords int
}

// Open opens the cache in opts.Dir, recovering from an existing journal if
// one is present.
//
// A corrupt journal is not an error: the directory contents are deleted
// and the cache restarts empty. I/O errors are returned unchanged.
func Open(opts Options) (*Cache, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("%w: Dir is empty", ErrInvalidOptions)
	}

	if opts.ValueCount < 1 {
		return nil, fmt.Errorf("%w: ValueCount %d, must be >= 1", ErrInvalidOptions, opts.ValueCount)
	}

	if opts.MaxSize <= 0 {
		return nil, fmt.Errorf("%w: MaxSize %d, must be > 0", ErrInvalidOptions, opts.MaxSize)
	}

	fsys := opts.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	c := &Cache{
		fsys:           fsys,
		dir:            opts.Dir,
		journalPath:    filepath.Join(opts.Dir, journalFile),
		journalTmpPath: filepath.Join(opts.Dir, journalFileTmp),
		valueCount:     opts.ValueCount,
		maxSize:        opts.MaxSize,
		index:          newLRUIndex(),
	}

	// Prefer to pick up where we left off.
	exists, err := fsys.Exists(c.journalPath)
	if err != nil {
		return nil, err
	}

	if exists {
		if err := c.recover(); err != nil {
			if !isCorrupt(err) {
				return nil, err
			}

			if err := c.reset(); err != nil {
				return nil, err
			}
		}
	}

	if c.journal == nil {
		// Create a new empty cache.
		if err := fsys.MkdirAll(c.dir, 0o755); err != nil {
			return nil, err
		}

		if err := c.rebuildJournalLocked(); err != nil {
			return nil, err
		}
	}

	if err := c.evictLocked(); err != nil {
		_ = c.Close()

		return nil, err
	}

	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// ValueCount returns the fixed number of values per entry.
func (c *Cache) ValueCount() int {
	return c.valueCount
}

// MaxSize returns the configured size bound in bytes.
func (c *Cache) MaxSize() int64 {
	return c.maxSize
}

// Size returns the sum of committed value lengths across all entries.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.size
}

// Len returns the number of entries in the index, including entries that
// are being created and are not yet readable.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.index.len()
}

// EntryInfo describes one entry for inspection tools.
type EntryInfo struct {
	Key      string
	Lengths  []int64
	Readable bool
	Editing  bool
}

// Entries returns a snapshot of the index in LRU order, least recently
// used first. Listing does not promote any entry.
func (c *Cache) Entries() []EntryInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.index.all()
	out := make([]EntryInfo, 0, len(entries))

	for _, e := range entries {
		out = append(out, EntryInfo{
			Key:      e.key,
			Lengths:  slices.Clone(e.lengths),
			Readable: e.readable,
			Editing:  e.current != nil,
		})
	}

	return out
}
