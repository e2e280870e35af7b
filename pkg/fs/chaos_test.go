package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestChaosPassesThroughWhenDisabled(t *testing.T) {
	t.Parallel()

	chaos := NewChaos(NewReal(), 12345, ChaosConfig{
		OpenFailRate:  1.0,
		ReadFailRate:  1.0,
		WriteFailRate: 1.0,
	})

	path := filepath.Join(t.TempDir(), "f.txt")

	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := chaos.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile with injection disabled: %v", err)
	}

	if string(got) != "hello" {
		t.Errorf("ReadFile = %q, want %q", got, "hello")
	}

	if n := chaos.InjectedCount(); n != 0 {
		t.Errorf("InjectedCount = %d, want 0", n)
	}
}

func TestChaosInjectsMarkedErrors(t *testing.T) {
	t.Parallel()

	chaos := NewChaos(NewReal(), 1, ChaosConfig{ReadFailRate: 1.0})
	chaos.Enable(true)

	path := filepath.Join(t.TempDir(), "f.txt")

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := chaos.ReadFile(path)
	if err == nil {
		t.Fatal("ReadFile should have failed")
	}

	if !IsInjected(err) {
		t.Errorf("error %v should be marked injected", err)
	}

	if n := chaos.InjectedCount(); n != 1 {
		t.Errorf("InjectedCount = %d, want 1", n)
	}
}

func TestChaosNeverInjectsNotExist(t *testing.T) {
	t.Parallel()

	// Missing-path errors must come from the wrapped filesystem, so
	// injected faults never lie about what exists.
	chaos := NewChaos(NewReal(), 7, ChaosConfig{OpenFailRate: 1.0})
	chaos.Enable(true)

	_, err := chaos.Open(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("Open should have failed")
	}

	if os.IsNotExist(err) && IsInjected(err) {
		t.Errorf("injected error %v must not read as not-exist", err)
	}
}

func TestChaosFileFaults(t *testing.T) {
	t.Parallel()

	chaos := NewChaos(NewReal(), 3, ChaosConfig{WriteFailRate: 1.0})

	path := filepath.Join(t.TempDir(), "f.txt")

	f, err := chaos.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	chaos.Enable(true)

	if _, err := f.Write([]byte("x")); !IsInjected(err) {
		t.Errorf("Write error = %v, want injected", err)
	}

	chaos.Enable(false)

	if _, err := f.Write([]byte("x")); err != nil {
		t.Errorf("Write with injection disabled: %v", err)
	}
}

func TestIsInjected(t *testing.T) {
	t.Parallel()

	if IsInjected(nil) {
		t.Error("IsInjected(nil) = true")
	}

	if IsInjected(os.ErrNotExist) {
		t.Error("IsInjected(real error) = true")
	}
}
