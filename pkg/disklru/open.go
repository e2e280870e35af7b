package disklru

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func isCorrupt(err error) bool {
	return errors.Is(err, errCorruptJournal)
}

// recover rebuilds the index from the existing journal, deletes stale
// staging files, and adopts the journal for append.
//
// Returns an error satisfying errCorruptJournal if the journal fails
// validation; the caller resets the directory in that case. Plain I/O
// errors propagate.
func (c *Cache) recover() error {
	if err := c.readJournal(); err != nil {
		return err
	}

	if err := c.collectGarbage(); err != nil {
		return err
	}

	if err := c.dropInconsistentEntries(); err != nil {
		return err
	}

	for _, e := range c.index.all() {
		if e.readable {
			c.size += e.totalLength()
		}
	}

	journal, err := c.fsys.OpenFile(c.journalPath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	c.journal = journal
	c.jw = bufio.NewWriter(journal)

	return nil
}

func (c *Cache) readJournal() error {
	f, err := c.fsys.Open(c.journalPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r := bufio.NewReader(f)

	if err := checkJournalHeader(r, c.valueCount); err != nil {
		return err
	}

	for {
		line, ok, err := readJournalLine(r)
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		if err := c.applyJournalLine(line); err != nil {
			return err
		}
	}
}

// applyJournalLine replays one body record into the index.
//
// Looking an entry up promotes it, so replay order reproduces the LRU
// order the journal records - READ lines need no work beyond the lookup.
func (c *Cache) applyJournalLine(line string) error {
	parts := strings.Split(line, " ")
	if len(parts) < 2 {
		return fmt.Errorf("%w: unexpected line %q", errCorruptJournal, line)
	}

	verb, key := parts[0], parts[1]
	if validateKey(key) != nil {
		return fmt.Errorf("%w: unexpected line %q", errCorruptJournal, line)
	}

	if verb == verbRemove && len(parts) == 2 {
		c.index.remove(key)
		c.journalRecords++

		return nil
	}

	e := c.index.get(key)
	if e == nil {
		e = newEntry(key, c.valueCount)
		c.index.put(e)
	}

	switch {
	case verb == verbClean && len(parts) == 2+c.valueCount:
		if err := e.setLengths(parts[2:]); err != nil {
			return err
		}

		e.readable = true
		e.current = nil

	case verb == verbDirty && len(parts) == 2:
		// Tombstone editor: marks the entry dirty so collectGarbage
		// discards it unless a CLEAN or REMOVE follows.
		e.current = &Editor{c: c, entry: e}

	case verb == verbRead && len(parts) == 2:
		// The lookup above already promoted the entry.

	default:
		return fmt.Errorf("%w: unexpected line %q", errCorruptJournal, line)
	}

	c.journalRecords++

	return nil
}

// collectGarbage deletes the compaction temp file and every entry whose
// most recent record was DIRTY. Such entries may have inconsistent files;
// none of a half-published edit survives.
func (c *Cache) collectGarbage() error {
	if err := c.removeIfExists(c.journalTmpPath); err != nil {
		return err
	}

	for _, e := range c.index.all() {
		if e.current == nil {
			continue
		}

		e.current = nil

		for i := range c.valueCount {
			if err := c.removeIfExists(cleanPath(c.dir, e.key, i)); err != nil {
				return err
			}

			if err := c.removeIfExists(dirtyPath(c.dir, e.key, i)); err != nil {
				return err
			}
		}

		c.index.remove(e.key)
	}

	return nil
}

// dropInconsistentEntries enforces the entry invariant after replay: a
// readable entry's clean files exist and their sizes equal its recorded
// lengths. A crash can lose buffered CLEAN/REMOVE records whose file
// operations already happened; entries that fail the check are deleted
// rather than served torn.
func (c *Cache) dropInconsistentEntries() error {
	for _, e := range c.index.all() {
		if !e.readable {
			continue
		}

		consistent := true

		for i := range c.valueCount {
			info, err := c.fsys.Stat(cleanPath(c.dir, e.key, i))
			if err != nil {
				if !os.IsNotExist(err) {
					return err
				}

				consistent = false

				break
			}

			if info.Size() != e.lengths[i] {
				consistent = false

				break
			}
		}

		if consistent {
			continue
		}

		for i := range c.valueCount {
			if err := c.removeIfExists(cleanPath(c.dir, e.key, i)); err != nil {
				return err
			}
		}

		c.index.remove(e.key)
	}

	return nil
}

// reset deletes the directory's contents and reinitializes the in-memory
// state, turning a corrupt directory into an empty cache.
func (c *Cache) reset() error {
	if err := c.deleteContents(); err != nil {
		return err
	}

	c.index = newLRUIndex()
	c.size = 0
	c.journalRecords = 0

	return nil
}

// deleteContents removes everything inside the cache directory, including
// files the cache did not create. The directory itself stays.
func (c *Cache) deleteContents() error {
	entries, err := c.fsys.ReadDir(c.dir)
	if err != nil {
		return err
	}

	for _, ent := range entries {
		if err := c.fsys.RemoveAll(filepath.Join(c.dir, ent.Name())); err != nil {
			return err
		}
	}

	return nil
}

// removeIfExists tolerates a missing file so that recovery and repeated
// aborts stay idempotent.
func (c *Cache) removeIfExists(path string) error {
	err := c.fsys.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
