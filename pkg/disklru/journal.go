package disklru

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The journal is a line-oriented ASCII file. A typical journal:
//
//	libcore.io.DiskLruCache
//	1
//	2
//
//	CLEAN 3400330d1dfc7f3f7f4b8d4d803dfcf6 832 21054
//	DIRTY 335c4c6028171cfddfbaae1a9c313c52
//	CLEAN 335c4c6028171cfddfbaae1a9c313c52 3934 2342
//	REMOVE 335c4c6028171cfddfbaae1a9c313c52
//	READ 3400330d1dfc7f3f7f4b8d4d803dfcf6
//
// The four header lines are the magic string, the format version, the
// value count, and a blank line. Each body line is a record: a verb, a
// key, and for CLEAN one decimal byte length per value. DIRTY records an
// opened edit; a DIRTY without a matching CLEAN or REMOVE means staging
// files may need to be deleted on recovery. READ records influence LRU
// order only.
const (
	journalFile    = "journal"
	journalFileTmp = "journal.tmp"

	journalMagic   = "libcore.io.DiskLruCache"
	journalVersion = "1"

	verbClean  = "CLEAN"
	verbDirty  = "DIRTY"
	verbRemove = "REMOVE"
	verbRead   = "READ"
)

// writeJournalHeader writes the four header lines.
func writeJournalHeader(w io.Writer, valueCount int) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n%d\n\n", journalMagic, journalVersion, valueCount)

	return err
}

// readJournalLine reads one complete, newline-terminated line.
//
// Returns ok=false at end of file. A final line missing its terminator is
// treated as end of file too: the record was partially written and lost,
// which recovery accepts.
func readJournalLine(r *bufio.Reader) (line string, ok bool, err error) {
	line, err = r.ReadString('\n')
	if err == io.EOF {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	return strings.TrimSuffix(line, "\n"), true, nil
}

// checkJournalHeader validates the four header lines against the cache's
// value count. Any deviation is a corrupt-journal condition.
func checkJournalHeader(r *bufio.Reader, valueCount int) error {
	var header [4]string

	for i := range header {
		line, ok, err := readJournalLine(r)
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("%w: truncated header", errCorruptJournal)
		}

		header[i] = line
	}

	magic, version, count, blank := header[0], header[1], header[2], header[3]

	if magic != journalMagic || version != journalVersion || blank != "" {
		return fmt.Errorf("%w: unexpected header [%s, %s, %s, %s]", errCorruptJournal, magic, version, count, blank)
	}

	n, err := strconv.Atoi(count)
	if err != nil || n != valueCount {
		return fmt.Errorf("%w: expected value count %d but was %q", errCorruptJournal, valueCount, count)
	}

	return nil
}
