package disklru

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
)

// journalRebuildFloor is the minimum number of journal records before
// automatic compaction is considered. Keeps small caches from rebuilding
// after every other mutation.
const journalRebuildFloor = 512

// Read returns a snapshot of the entry named key, or ok=false if no
// readable entry exists. A returned snapshot observes the values as they
// were at the time of the call; later edits and removals do not affect it.
//
// A successful read promotes the entry to most-recently-used.
func (c *Cache) Read(key string) (*Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.journal == nil {
		return nil, false, ErrClosed
	}

	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	e := c.index.get(key)
	if e == nil || !e.readable {
		return nil, false, nil
	}

	if err := c.appendRecord(verbRead, key, "", false); err != nil {
		return nil, false, err
	}

	// Open all streams eagerly so the snapshot observes a single
	// published version. Lazily opened streams could come from
	// different edits.
	ins := make([]io.ReadCloser, c.valueCount)

	for i := range ins {
		f, err := c.fsys.Open(cleanPath(c.dir, key, i))
		if err != nil {
			for _, in := range ins[:i] {
				_ = in.Close()
			}

			return nil, false, err
		}

		ins[i] = f
	}

	return &Snapshot{ins: ins}, true, nil
}

// Edit returns an editor for the entry named key, or ok=false if another
// editor currently owns it. The entry is created empty if absent.
//
// The DIRTY record is flushed to disk before Edit returns, so a crash
// after this point leaves recovery aware of staging files to delete.
func (c *Cache) Edit(key string) (*Editor, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.journal == nil {
		return nil, false, ErrClosed
	}

	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	e := c.index.get(key)
	if e == nil {
		e = newEntry(key, c.valueCount)
		c.index.put(e)
	} else if e.current != nil {
		return nil, false, nil
	}

	ed := &Editor{c: c, entry: e}
	e.current = ed

	if err := c.appendRecord(verbDirty, key, "", true); err != nil {
		e.current = nil
		if !e.readable {
			c.index.remove(key)
		}

		return nil, false, err
	}

	return ed, true, nil
}

// Remove drops the entry named key and deletes its committed files.
// Returns ok=false if the entry is absent or currently being edited.
func (c *Cache) Remove(key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.journal == nil {
		return false, ErrClosed
	}

	if err := validateKey(key); err != nil {
		return false, err
	}

	e := c.index.get(key)
	if e == nil || e.current != nil {
		return false, nil
	}

	if err := c.removeEntryLocked(e); err != nil {
		return false, err
	}

	if err := c.maybeRebuildLocked(); err != nil {
		return false, err
	}

	return true, nil
}

// Close aborts any in-flight editors and closes the journal. Close is
// idempotent; later calls to Read, Edit, Remove and RebuildJournal fail
// with [ErrClosed].
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.journal == nil {
		return nil
	}

	for _, e := range c.index.all() {
		if e.current != nil {
			if err := c.completeEditLocked(e.current, false); err != nil {
				return err
			}
		}
	}

	flushErr := c.jw.Flush()
	closeErr := c.journal.Close()
	c.journal = nil
	c.jw = nil

	if flushErr != nil {
		return flushErr
	}

	return closeErr
}

// Delete closes the cache and deletes all of its stored contents,
// including files in the directory that the cache did not create.
func (c *Cache) Delete() error {
	if err := c.Close(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.deleteContents()
}

// RebuildJournal compacts the journal to the minimal record set for the
// live entries. The cache also compacts automatically once the journal
// grows well past the live-entry count.
func (c *Cache) RebuildJournal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.journal == nil {
		return ErrClosed
	}

	return c.rebuildJournalLocked()
}

// completeEdit finishes an edit session on behalf of [Editor.Commit] and
// [Editor.Abort].
func (c *Cache) completeEdit(ed *Editor, success bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.completeEditLocked(ed, success)
}

func (c *Cache) completeEditLocked(ed *Editor, success bool) error {
	e := ed.entry
	if e.current != ed {
		return ErrStaleEditor
	}

	if c.journal == nil {
		return ErrClosed
	}

	// A first-time commit must supply every value.
	if success && !e.readable {
		for i := range c.valueCount {
			exists, err := c.fsys.Exists(dirtyPath(c.dir, e.key, i))
			if err != nil {
				return err
			}

			if !exists {
				if err := c.completeEditLocked(ed, false); err != nil {
					return err
				}

				return fmt.Errorf("%w: missing value %d", ErrIncompleteEdit, i)
			}
		}
	}

	oldLengths := slices.Clone(e.lengths)

	for i := range c.valueCount {
		dirty := dirtyPath(c.dir, e.key, i)

		if !success {
			if err := c.removeIfExists(dirty); err != nil {
				return err
			}

			continue
		}

		exists, err := c.fsys.Exists(dirty)
		if err != nil {
			return err
		}

		if !exists {
			// Only possible on an update: the editor kept this
			// index's previous value.
			continue
		}

		clean := cleanPath(c.dir, e.key, i)
		if err := c.fsys.Rename(dirty, clean); err != nil {
			return err
		}

		info, err := c.fsys.Stat(clean)
		if err != nil {
			return err
		}

		e.lengths[i] = info.Size()
	}

	wasReadable := e.readable
	e.current = nil

	if e.readable || success {
		e.readable = true
		c.index.promote(e.key)

		if wasReadable {
			c.size += e.totalLength() - sum(oldLengths)
		} else {
			c.size += e.totalLength()
		}

		// The rename above is already on disk; a crash before this
		// append recovers the entry as uncommitted and discards it.
		if err := c.appendRecord(verbClean, e.key, e.lengthsSuffix(), false); err != nil {
			return err
		}
	} else {
		c.index.remove(e.key)

		if err := c.appendRecord(verbRemove, e.key, "", false); err != nil {
			return err
		}
	}

	if success {
		if err := c.evictLocked(); err != nil {
			return err
		}
	}

	return c.maybeRebuildLocked()
}

// removeEntryLocked deletes an entry's committed files and drops it from
// the index. The entry must not have an active editor.
func (c *Cache) removeEntryLocked(e *entry) error {
	for i := range c.valueCount {
		if err := c.removeIfExists(cleanPath(c.dir, e.key, i)); err != nil {
			return err
		}
	}

	if e.readable {
		c.size -= e.totalLength()
	}

	if err := c.appendRecord(verbRemove, e.key, "", false); err != nil {
		return err
	}

	c.index.remove(e.key)

	return nil
}

// evictLocked removes entries strictly front-to-back in LRU order until
// the committed size is at or below MaxSize. An entry with an active
// editor cannot be removed and blocks eviction until its edit completes,
// so a newer entry is never evicted before an older one.
func (c *Cache) evictLocked() error {
	for c.size > c.maxSize {
		var victim *entry

		for _, e := range c.index.all() {
			if e.current != nil {
				return nil
			}

			if e.readable {
				victim = e

				break
			}
		}

		if victim == nil {
			return nil
		}

		if err := c.removeEntryLocked(victim); err != nil {
			return err
		}
	}

	return nil
}

// appendRecord writes one body record. DIRTY records are flushed so the
// journal on disk always contains the antecedent of any CLEAN or REMOVE
// it may later record; everything else may stay buffered until the next
// flush or close.
func (c *Cache) appendRecord(verb, key, suffix string, flush bool) error {
	if _, err := c.jw.WriteString(verb + " " + key + suffix + "\n"); err != nil {
		return err
	}

	c.journalRecords++

	if flush {
		return c.jw.Flush()
	}

	return nil
}

// maybeRebuildLocked compacts once the journal holds well over twice as
// many records as there are live entries.
func (c *Cache) maybeRebuildLocked() error {
	if c.journalRecords < journalRebuildFloor {
		return nil
	}

	if c.journalRecords <= 2*c.index.len() {
		return nil
	}

	return c.rebuildJournalLocked()
}

// rebuildJournalLocked materializes the index into a minimal journal:
// header plus one DIRTY or CLEAN line per entry in LRU order. It stages
// the new journal at journal.tmp, renames it into place, and reopens it
// for append. Also used by Open to create a fresh journal.
func (c *Cache) rebuildJournalLocked() error {
	if c.journal != nil {
		if err := c.jw.Flush(); err != nil {
			return err
		}

		if err := c.journal.Close(); err != nil {
			return err
		}

		c.journal = nil
		c.jw = nil
	}

	var buf bytes.Buffer

	if err := writeJournalHeader(&buf, c.valueCount); err != nil {
		return err
	}

	for _, e := range c.index.all() {
		if e.current != nil {
			buf.WriteString(verbDirty + " " + e.key + "\n")
		} else {
			buf.WriteString(verbClean + " " + e.key + e.lengthsSuffix() + "\n")
		}
	}

	tmp, err := c.fsys.Create(c.journalTmpPath)
	if err != nil {
		return err
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()

		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := c.fsys.Rename(c.journalTmpPath, c.journalPath); err != nil {
		return err
	}

	journal, err := c.fsys.OpenFile(c.journalPath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	c.journal = journal
	c.jw = bufio.NewWriter(journal)
	c.journalRecords = c.index.len()

	return nil
}

func sum(ns []int64) int64 {
	var total int64
	for _, n := range ns {
		total += n
	}

	return total
}
