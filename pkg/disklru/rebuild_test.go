package disklru_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func journalLines(t *testing.T, dir string) []string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "journal"))
	if err != nil {
		t.Fatal(err)
	}

	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRebuildJournalDropsHistory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := openCache(t, dir, 1, testMaxSize)
	defer func() { _ = cache.Close() }()

	set(t, cache, "a", "12345")
	set(t, cache, "b", "x")
	set(t, cache, "a", "123") // update: extra DIRTY/CLEAN pair

	if ok, err := cache.Remove("b"); err != nil || !ok {
		t.Fatalf("Remove = %t, %v", ok, err)
	}

	if _, ok := get(t, cache, "a", 0); !ok {
		t.Fatal("read a")
	}

	if err := cache.RebuildJournal(); err != nil {
		t.Fatalf("RebuildJournal: %v", err)
	}

	lines := journalLines(t, dir)

	want := []string{
		"libcore.io.DiskLruCache",
		"1",
		"1",
		"",
		"CLEAN a 3",
	}

	if len(lines) != len(want) {
		t.Fatalf("journal lines = %q, want %q", lines, want)
	}

	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("journal lines = %q, want %q", lines, want)
		}
	}
}

func TestRebuildJournalRecordsActiveEditAsDirty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := openCache(t, dir, 1, testMaxSize)
	defer func() { _ = cache.Close() }()

	set(t, cache, "done", "v")

	ed, ok, err := cache.Edit("open")
	if err != nil || !ok {
		t.Fatalf("Edit: %v, %t", err, ok)
	}

	if err := cache.RebuildJournal(); err != nil {
		t.Fatalf("RebuildJournal: %v", err)
	}

	lines := journalLines(t, dir)

	want := []string{
		"libcore.io.DiskLruCache",
		"1",
		"1",
		"",
		"CLEAN done 1",
		"DIRTY open",
	}

	if len(lines) != len(want) {
		t.Fatalf("journal lines = %q, want %q", lines, want)
	}

	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("journal lines = %q, want %q", lines, want)
		}
	}

	if err := ed.Abort(); err != nil {
		t.Fatal(err)
	}
}

func TestRebuildJournalPreservesLRUOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := openCache(t, dir, 1, testMaxSize)

	set(t, cache, "a", "1")
	set(t, cache, "b", "2")

	if _, ok := get(t, cache, "a", 0); !ok {
		t.Fatal("read a")
	}

	if err := cache.RebuildJournal(); err != nil {
		t.Fatal(err)
	}

	if err := cache.Close(); err != nil {
		t.Fatal(err)
	}

	cache = openCache(t, dir, 1, testMaxSize)
	defer func() { _ = cache.Close() }()

	entries := cache.Entries()
	if len(entries) != 2 || entries[0].Key != "b" || entries[1].Key != "a" {
		t.Errorf("order after rebuild+reopen = %v, want [b a]", entries)
	}
}

func TestAutomaticCompaction(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := openCache(t, dir, 1, testMaxSize)
	defer func() { _ = cache.Close() }()

	set(t, cache, "a", "v")

	// Pile up READ records well past the rebuild floor, then mutate to
	// trigger the compaction check.
	for range 600 {
		if _, ok := get(t, cache, "a", 0); !ok {
			t.Fatal("read a")
		}
	}

	set(t, cache, "b", "w")

	lines := journalLines(t, dir)

	// 4 header lines + one CLEAN per live entry; the READ history is gone.
	if len(lines) != 6 {
		t.Fatalf("journal has %d lines after compaction, want 6:\n%s", len(lines), strings.Join(lines, "\n"))
	}
}

func TestOperationsContinueAfterRebuild(t *testing.T) {
	t.Parallel()

	cache := openCache(t, t.TempDir(), 1, testMaxSize)
	defer func() { _ = cache.Close() }()

	set(t, cache, "a", "1")

	if err := cache.RebuildJournal(); err != nil {
		t.Fatal(err)
	}

	set(t, cache, "b", "2")

	if got, ok := get(t, cache, "a", 0); !ok || got != "1" {
		t.Errorf("a = %q, %t", got, ok)
	}

	if got, ok := get(t, cache, "b", 0); !ok || got != "2" {
		t.Errorf("b = %q, %t", got, ok)
	}
}
