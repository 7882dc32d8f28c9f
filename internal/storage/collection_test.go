package storage

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/atinyakov/lotmarket/internal/common"
)

func emptyList() []string { return []string{} }

func TestOpen_FileNotExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")

	col, err := Open(path, emptyList, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	col.View(func(items []string) {
		if len(items) != 0 {
			t.Errorf("expected empty state, got %v", items)
		}
	})
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open should not create the backing file")
	}
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path, emptyList, nil)
	if err == nil {
		t.Fatal("expected error for corrupt file, got nil")
	}
	if !errors.Is(err, common.ErrCorruptStore) {
		t.Errorf("expected ErrCorruptStore, got %v", err)
	}
}

func TestOpen_LoadedHook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte(`["a","b"]`), 0o644); err != nil {
		t.Fatal(err)
	}

	col, err := Open(path, emptyList, func(items []string) []string {
		return append(items, "derived")
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	col.View(func(items []string) {
		want := []string{"a", "b", "derived"}
		if !slices.Equal(items, want) {
			t.Errorf("expected %v, got %v", want, items)
		}
	})
}

func TestUpdate_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")

	col, err := Open(path, emptyList, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	err = col.Update(func(items []string) ([]string, error) {
		return append(items, "first", "second"), nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reopened, err := Open(path, emptyList, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	reopened.View(func(items []string) {
		want := []string{"first", "second"}
		if !slices.Equal(items, want) {
			t.Errorf("expected %v after reload, got %v", want, items)
		}
	})
}

func TestUpdate_ErrorLeavesFileAndStateUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")

	col, err := Open(path, emptyList, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := col.Update(func(items []string) ([]string, error) {
		return append(items, "keep"), nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	wantErr := errors.New("mutator rejected")
	if err := col.Update(func(items []string) ([]string, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("expected mutator error, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("backing file changed after failed update")
	}
	col.View(func(items []string) {
		if !slices.Equal(items, []string{"keep"}) {
			t.Errorf("in-memory state changed after failed update: %v", items)
		}
	})
}

func TestUpdate_NoTemporaryFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.json")

	col, err := Open(path, emptyList, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for n := 0; n < 5; n++ {
		if err := col.Update(func(items []string) ([]string, error) {
			return append(items, "x"), nil
		}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "items.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only the backing file, got %v", names)
	}
}

func TestUpdate_ConcurrentWritersSerialize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")

	col, err := Open(path, func() []int { return []int{} }, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = col.Update(func(items []int) ([]int, error) {
				return append(slices.Clone(items), i), nil
			})
		}()
	}
	wg.Wait()

	col.View(func(items []int) {
		if len(items) != writers {
			t.Errorf("expected %d items, got %d", writers, len(items))
		}
	})

	reopened, err := Open(path, func() []int { return nil }, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	reopened.View(func(items []int) {
		if len(items) != writers {
			t.Errorf("expected %d items after reload, got %d", writers, len(items))
		}
	})
}
