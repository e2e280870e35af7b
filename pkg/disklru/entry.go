package disklru

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// entry is the in-memory record for one key.
type entry struct {
	key string

	// Byte lengths of each value's committed file.
	lengths []int64

	// True once the entry has ever been successfully committed with a
	// full value set. If true, the clean files exist on disk and their
	// sizes equal lengths.
	readable bool

	// The ongoing edit, or nil if the entry is not being edited.
	current *Editor
}

func newEntry(key string, valueCount int) *entry {
	return &entry{
		key:     key,
		lengths: make([]int64, valueCount),
	}
}

// lengthsSuffix renders the length vector as it appears after the key on a
// CLEAN record: one leading space per decimal field.
func (e *entry) lengthsSuffix() string {
	var b strings.Builder
	for _, n := range e.lengths {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(n, 10))
	}

	return b.String()
}

// setLengths parses decimal length fields from a CLEAN record.
func (e *entry) setLengths(fields []string) error {
	if len(fields) != len(e.lengths) {
		return fmt.Errorf("%w: got %d length fields, want %d", errCorruptJournal, len(fields), len(e.lengths))
	}

	for i, s := range fields {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: bad length field %q", errCorruptJournal, s)
		}

		e.lengths[i] = n
	}

	return nil
}

// totalLength returns the sum of the committed value lengths.
func (e *entry) totalLength() int64 {
	var total int64
	for _, n := range e.lengths {
		total += n
	}

	return total
}

// cleanPath returns the committed file for value i of key.
func cleanPath(dir, key string, i int) string {
	return filepath.Join(dir, key+"."+strconv.Itoa(i))
}

// dirtyPath returns the staging file written by an active editor.
func dirtyPath(dir, key string, i int) string {
	return cleanPath(dir, key, i) + ".tmp"
}

// validateKey rejects keys that would break the journal's line format or
// escape the cache directory.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	if strings.ContainsAny(key, " \n\r/\\\x00") {
		return fmt.Errorf("%w: %q must not contain spaces, newlines, or path separators", ErrInvalidKey, key)
	}

	return nil
}
