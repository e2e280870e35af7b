package disklru_test

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/diskcache/pkg/disklru"
	"github.com/calvinalkan/diskcache/pkg/fs"
)

// TestChaosFaultsLeaveCacheRecoverable hammers the cache through a
// fault-injecting filesystem, then reopens the directory on the real
// filesystem and checks the durability invariants: no staging files
// survive recovery, and every entry the recovered index considers
// readable is fully readable with consistent lengths.
func TestChaosFaultsLeaveCacheRecoverable(t *testing.T) {
	t.Parallel()

	const valueCount = 2

	for _, seed := range []int64{3, 99, 2024} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()

			chaos := fs.NewChaos(fs.NewReal(), seed, fs.DefaultChaosConfig())

			cache, err := disklru.Open(disklru.Options{
				Dir:        dir,
				ValueCount: valueCount,
				MaxSize:    testMaxSize,
				FS:         chaos,
			})
			if err != nil {
				t.Fatalf("Open before chaos: %v", err)
			}

			chaos.Enable(true)

			rng := rand.New(rand.NewSource(seed))

			// Errors are expected and ignored; the point is what the
			// directory looks like afterwards.
			for op := range 300 {
				key := fmt.Sprintf("k%d", rng.Intn(6))

				switch rng.Intn(4) {
				case 0, 1:
					ed, ok, err := cache.Edit(key)
					if err != nil || !ok {
						continue
					}

					failed := false

					for i := range valueCount {
						if err := ed.Set(i, fmt.Sprintf("v%d-%d", op, i)); err != nil {
							failed = true

							break
						}
					}

					if failed {
						_ = ed.Abort()
					} else {
						_ = ed.Commit()
					}

				case 2:
					snap, ok, err := cache.Read(key)
					if err != nil || !ok {
						continue
					}

					_, _ = snap.GetString(rng.Intn(valueCount))
					snap.Close()

				case 3:
					_, _ = cache.Remove(key)
				}
			}

			chaos.Enable(false)

			_ = cache.Close()

			if chaos.InjectedCount() == 0 {
				t.Fatal("chaos injected no faults; the test exercised nothing")
			}

			// Reopen on the real filesystem and verify what survived.
			reopened, err := disklru.Open(disklru.Options{
				Dir:        dir,
				ValueCount: valueCount,
				MaxSize:    testMaxSize,
			})
			if err != nil {
				t.Fatalf("Open after chaos: %v", err)
			}
			defer func() { _ = reopened.Close() }()

			files, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}

			for _, f := range files {
				if strings.HasSuffix(f.Name(), ".tmp") {
					t.Errorf("staging file %s survived recovery", f.Name())
				}
			}

			var total int64

			for _, info := range reopened.Entries() {
				if info.Editing {
					t.Errorf("entry %q has an editor after open", info.Key)
				}

				if !info.Readable {
					t.Errorf("entry %q is not readable after open", info.Key)
				}

				snap, ok, err := reopened.Read(info.Key)
				if err != nil || !ok {
					t.Fatalf("Read(%q) after recovery = %t, %v", info.Key, ok, err)
				}

				for i := range valueCount {
					if _, err := snap.GetString(i); err != nil {
						t.Errorf("GetString(%q, %d): %v", info.Key, i, err)
					}

					st, err := os.Stat(filepath.Join(dir, fmt.Sprintf("%s.%d", info.Key, i)))
					if err != nil {
						t.Errorf("stat clean file: %v", err)
					} else if st.Size() != info.Lengths[i] {
						t.Errorf("entry %q value %d: file size %d, index says %d",
							info.Key, i, st.Size(), info.Lengths[i])
					}

					total += info.Lengths[i]
				}

				snap.Close()
			}

			if got := reopened.Size(); got != total {
				t.Errorf("Size = %d, sum of lengths = %d", got, total)
			}
		})
	}
}
