package disklru_test

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/diskcache/pkg/disklru"
	"github.com/calvinalkan/diskcache/pkg/fs"
)

// cacheModel is the in-memory oracle the real cache is compared against:
// a map of committed values plus the expected LRU order.
type cacheModel struct {
	values map[string][]string
	order  []string // LRU first
}

func newCacheModel() *cacheModel {
	return &cacheModel{values: make(map[string][]string)}
}

func (m *cacheModel) touch(key string) {
	if i := slices.Index(m.order, key); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}

	m.order = append(m.order, key)
}

func (m *cacheModel) set(key string, values []string) {
	m.values[key] = slices.Clone(values)
	m.touch(key)
}

func (m *cacheModel) get(key string) ([]string, bool) {
	values, ok := m.values[key]
	if !ok {
		return nil, false
	}

	m.touch(key)

	return values, true
}

func (m *cacheModel) remove(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}

	delete(m.values, key)

	if i := slices.Index(m.order, key); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}

	return true
}

// observedEntry is the externally visible state of one cache entry.
type observedEntry struct {
	Key    string
	Values []string
}

// observe dumps the real cache in LRU order, reading every value.
// Reading through Entries+Read must not change the relative order, so the
// reads replay the listing order back into the cache.
func observe(t *testing.T, cache *disklru.Cache, valueCount int) []observedEntry {
	t.Helper()

	var out []observedEntry

	for _, info := range cache.Entries() {
		snap, ok, err := cache.Read(info.Key)
		if err != nil {
			t.Fatalf("Read(%q): %v", info.Key, err)
		}

		if !ok {
			t.Fatalf("Read(%q): entry listed but not readable", info.Key)
		}

		values := make([]string, valueCount)

		for i := range valueCount {
			values[i], err = snap.GetString(i)
			if err != nil {
				t.Fatalf("GetString(%q, %d): %v", info.Key, i, err)
			}
		}

		snap.Close()

		out = append(out, observedEntry{Key: info.Key, Values: values})
	}

	return out
}

func (m *cacheModel) expected() []observedEntry {
	var out []observedEntry

	for _, key := range m.order {
		out = append(out, observedEntry{Key: key, Values: slices.Clone(m.values[key])})
	}

	// observe() reads each entry in listing order, which promotes them
	// in that same order; the relative order is unchanged.
	return out
}

func TestModelRandomOperations(t *testing.T) {
	t.Parallel()

	const (
		valueCount = 2
		numOps     = 400
	)

	for _, seed := range []int64{1, 7, 42, 1337} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			fsys := fs.NewStrictTestFS(t, fs.NewReal())
			rng := rand.New(rand.NewSource(seed))

			open := func() *disklru.Cache {
				cache, err := disklru.Open(disklru.Options{
					Dir:        dir,
					ValueCount: valueCount,
					MaxSize:    testMaxSize,
					FS:         fsys,
				})
				if err != nil {
					t.Fatalf("Open: %v", err)
				}

				return cache
			}

			cache := open()
			defer func() { _ = cache.Close() }()

			model := newCacheModel()

			randKey := func() string {
				return fmt.Sprintf("k%d", rng.Intn(8))
			}

			for op := range numOps {
				switch rng.Intn(10) {
				case 0, 1, 2, 3: // set
					key := randKey()

					values := make([]string, valueCount)
					for i := range values {
						values[i] = fmt.Sprintf("v%d-%d-%d", op, i, rng.Intn(1000))
					}

					ed, ok, err := cache.Edit(key)
					if err != nil {
						t.Fatalf("op %d: Edit(%q): %v", op, key, err)
					}

					if !ok {
						t.Fatalf("op %d: Edit(%q): unexpected contention", op, key)
					}

					for i, v := range values {
						if err := ed.Set(i, v); err != nil {
							t.Fatalf("op %d: Set: %v", op, err)
						}
					}

					if err := ed.Commit(); err != nil {
						t.Fatalf("op %d: Commit: %v", op, err)
					}

					model.set(key, values)

				case 4, 5, 6: // get
					key := randKey()

					snap, ok, err := cache.Read(key)
					if err != nil {
						t.Fatalf("op %d: Read(%q): %v", op, key, err)
					}

					wantValues, wantOK := model.get(key)
					if ok != wantOK {
						t.Fatalf("op %d: Read(%q) = %t, model says %t", op, key, ok, wantOK)
					}

					if !ok {
						continue
					}

					for i, want := range wantValues {
						got, err := snap.GetString(i)
						if err != nil {
							t.Fatalf("op %d: GetString: %v", op, err)
						}

						if got != want {
							t.Fatalf("op %d: value %d = %q, want %q", op, i, got, want)
						}
					}

					snap.Close()

				case 7: // remove
					key := randKey()

					ok, err := cache.Remove(key)
					if err != nil {
						t.Fatalf("op %d: Remove(%q): %v", op, key, err)
					}

					if want := model.remove(key); ok != want {
						t.Fatalf("op %d: Remove(%q) = %t, model says %t", op, key, ok, want)
					}

				case 8: // rebuild
					if err := cache.RebuildJournal(); err != nil {
						t.Fatalf("op %d: RebuildJournal: %v", op, err)
					}

				case 9: // reopen
					if err := cache.Close(); err != nil {
						t.Fatalf("op %d: Close: %v", op, err)
					}

					cache = open()
				}
			}

			got := observe(t, cache, valueCount)
			if diff := cmp.Diff(model.expected(), got); diff != "" {
				t.Errorf("cache state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
