package disklru

import (
	"fmt"
	"io"
)

// Editor is an exclusive, transactional write handle for one entry,
// returned by [Cache.Edit]. Every editor must be finished with exactly one
// call to [Editor.Commit] or [Editor.Abort]; afterwards the editor is
// invalid and its methods return [ErrStaleEditor].
//
// Editor methods are not safe for concurrent use with each other.
type Editor struct {
	c     *Cache
	entry *entry
}

// NewInputStream opens the currently-published value for index, unaffected
// by this editor's own writes. Returns ok=false if the entry has never
// been committed.
func (ed *Editor) NewInputStream(index int) (io.ReadCloser, bool, error) {
	if err := ed.c.checkValueIndex(index); err != nil {
		return nil, false, err
	}

	ed.c.mu.Lock()
	defer ed.c.mu.Unlock()

	if ed.entry.current != ed {
		return nil, false, ErrStaleEditor
	}

	if !ed.entry.readable {
		return nil, false, nil
	}

	f, err := ed.c.fsys.Open(cleanPath(ed.c.dir, ed.entry.key, index))
	if err != nil {
		return nil, false, err
	}

	return f, true, nil
}

// GetString drains the currently-published value for index as UTF-8.
// Returns ok=false if the entry has never been committed.
func (ed *Editor) GetString(index int) (string, bool, error) {
	in, ok, err := ed.NewInputStream(index)
	if err != nil || !ok {
		return "", false, err
	}

	defer func() { _ = in.Close() }()

	b, err := io.ReadAll(in)
	if err != nil {
		return "", false, err
	}

	return string(b), true, nil
}

// NewOutputStream opens the staging file for index for truncating write.
// Ownership of the stream passes to the caller, who must close it before
// committing.
func (ed *Editor) NewOutputStream(index int) (io.WriteCloser, error) {
	if err := ed.c.checkValueIndex(index); err != nil {
		return nil, err
	}

	ed.c.mu.Lock()
	defer ed.c.mu.Unlock()

	if ed.entry.current != ed {
		return nil, ErrStaleEditor
	}

	return ed.c.fsys.Create(dirtyPath(ed.c.dir, ed.entry.key, index))
}

// Set writes value as UTF-8 to the staging file for index.
func (ed *Editor) Set(index int, value string) error {
	out, err := ed.NewOutputStream(index)
	if err != nil {
		return err
	}

	_, writeErr := io.WriteString(out, value)
	closeErr := out.Close()

	if writeErr != nil {
		return writeErr
	}

	return closeErr
}

// Commit atomically publishes the staged values. On a first-time commit
// every index must have been written; otherwise the edit is aborted and
// [ErrIncompleteEdit] returned.
func (ed *Editor) Commit() error {
	return ed.c.completeEdit(ed, true)
}

// Abort discards the staged values. Aborting the initial edit of an entry
// removes the entry; aborting an update leaves the previous values
// published.
func (ed *Editor) Abort() error {
	return ed.c.completeEdit(ed, false)
}

func (c *Cache) checkValueIndex(index int) error {
	if index < 0 || index >= c.valueCount {
		return fmt.Errorf("%w: %d (value count %d)", ErrInvalidIndex, index, c.valueCount)
	}

	return nil
}
