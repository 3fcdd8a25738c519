package attachment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestAddRemoveReleasesReference(t *testing.T) {
	store := NewMemoryRefStore()
	mgr := NewManager(store, Options{})

	added, err := mgr.Add(File{Name: "photo.jpg", Size: 4, MediaType: "image/jpeg", Source: BytesSource("abcd")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(added) != 1 || mgr.Len() != 1 {
		t.Fatalf("expected one pending attachment, got %d", mgr.Len())
	}
	if store.Live() != 1 {
		t.Fatalf("expected one live reference, got %d", store.Live())
	}

	ref := added[0].Ref
	if _, err := store.Resolve(ref); err != nil {
		t.Fatalf("Resolve before release: %v", err)
	}

	if !mgr.Remove(added[0].ID) {
		t.Fatal("expected Remove to report removal")
	}
	if mgr.Len() != 0 || store.Live() != 0 {
		t.Fatalf("expected empty manager and store, got %d/%d", mgr.Len(), store.Live())
	}
	if _, err := store.Resolve(ref); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}

	if mgr.Remove(added[0].ID) {
		t.Fatal("second Remove must be a no-op")
	}
	if acquired, released := store.Counts(); acquired != 1 || released != 1 {
		t.Fatalf("expected 1 acquire and 1 release, got %d/%d", acquired, released)
	}
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	store := NewMemoryRefStore()
	mgr := NewManager(store, Options{})
	if _, err := mgr.Add(File{Name: "a.txt", MediaType: "text/plain", Source: BytesSource("a")}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if mgr.Remove("missing") {
		t.Fatal("unknown id must not be removed")
	}
	if mgr.Len() != 1 || store.Live() != 1 {
		t.Fatal("unknown id must not affect pending set")
	}
}

func TestClearReleasesEverything(t *testing.T) {
	store := NewMemoryRefStore()
	mgr := NewManager(store, Options{})

	_, err := mgr.Add(
		File{Name: "a.txt", MediaType: "text/plain", Source: BytesSource("a")},
		File{Name: "b.txt", MediaType: "text/plain", Source: BytesSource("b")},
		File{Name: "c.txt", MediaType: "text/plain", Source: BytesSource("c")},
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	pending := mgr.Pending()
	if len(pending) != 3 || pending[0].Name != "a.txt" || pending[2].Name != "c.txt" {
		t.Fatalf("pending order not preserved: %+v", pending)
	}

	if n := mgr.Clear(); n != 3 {
		t.Fatalf("Clear released %d, want 3", n)
	}
	if store.Live() != 0 {
		t.Fatalf("expected no live references, got %d", store.Live())
	}
	if n := mgr.Clear(); n != 0 {
		t.Fatalf("second Clear released %d, want 0", n)
	}
	if _, released := store.Counts(); released != 3 {
		t.Fatalf("expected exactly 3 releases, got %d", released)
	}
}

func TestCloseReleasesPending(t *testing.T) {
	store := NewMemoryRefStore()
	mgr := NewManager(store, Options{})
	if _, err := mgr.Add(File{Name: "a.txt", MediaType: "text/plain", Source: BytesSource("a")}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := mgr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if store.Live() != 0 {
		t.Fatal("Close must release pending references")
	}
}

func TestPendingReturnsCopy(t *testing.T) {
	mgr := NewManager(NewMemoryRefStore(), Options{})
	if _, err := mgr.Add(File{Name: "a.txt", MediaType: "text/plain", Source: BytesSource("a")}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	snapshot := mgr.Pending()
	snapshot[0].Name = "mutated"
	if mgr.Pending()[0].Name != "a.txt" {
		t.Fatal("Pending must return a copy")
	}
}

func TestAddRejectsOversizedFiles(t *testing.T) {
	store := NewMemoryRefStore()
	mgr := NewManager(store, Options{MaxBytes: 10})

	_, err := mgr.Add(
		File{Name: "small.txt", Size: 5, MediaType: "text/plain", Source: BytesSource("small")},
		File{Name: "big.bin", Size: 11, MediaType: "application/octet-stream", Source: BytesSource("0123456789A")},
	)
	if !errors.Is(err, ErrAttachmentTooLarge) {
		t.Fatalf("expected ErrAttachmentTooLarge, got %v", err)
	}
	if mgr.Len() != 0 || store.Live() != 0 {
		t.Fatal("rejected batch must not acquire anything")
	}
}

func TestAddReleasesPartialBatchOnAcquireFailure(t *testing.T) {
	store := NewMemoryRefStore()
	mgr := NewManager(store, Options{})

	_, err := mgr.Add(
		File{Name: "ok.txt", MediaType: "text/plain", Source: BytesSource("ok")},
		File{Name: "broken", MediaType: "text/plain"},
	)
	if err == nil {
		t.Fatal("expected error for nil source")
	}
	if store.Live() != 0 || mgr.Len() != 0 {
		t.Fatal("partial batch must be released")
	}
}

func TestAddSniffsMediaType(t *testing.T) {
	mgr := NewManager(NewMemoryRefStore(), Options{})

	added, err := mgr.Add(File{Name: "upload", Size: int64(len(pngHeader)), Source: BytesSource(pngHeader)})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added[0].MediaType != "image/png" {
		t.Fatalf("expected image/png, got %s", added[0].MediaType)
	}
}

func TestFileFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lease.txt")
	if err := os.WriteFile(path, []byte("lease terms"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := FileFromPath(path)
	if err != nil {
		t.Fatalf("FileFromPath: %v", err)
	}
	if f.Name != "lease.txt" || f.Size != int64(len("lease terms")) {
		t.Fatalf("unexpected file %+v", f)
	}

	if _, err := FileFromPath(dir); err == nil {
		t.Fatal("directories must be rejected")
	}
	if _, err := FileFromPath(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("missing files must be rejected")
	}
}

func TestTakeLeavesLaterAdditionsPending(t *testing.T) {
	store := NewMemoryRefStore()
	mgr := NewManager(store, Options{})
	if _, err := mgr.Add(File{Name: "a.txt", MediaType: "text/plain", Source: BytesSource("a")}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	taken := mgr.Take()
	if len(taken) != 1 || mgr.Len() != 0 {
		t.Fatalf("Take must drain the pending set, got %d taken, %d pending", len(taken), mgr.Len())
	}
	if store.Live() != 1 {
		t.Fatal("Take must not release references")
	}

	if _, err := mgr.Add(File{Name: "b.txt", MediaType: "text/plain", Source: BytesSource("b")}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if n := mgr.Release(taken); n != 1 {
		t.Fatalf("Release freed %d, want 1", n)
	}
	if mgr.Len() != 1 || store.Live() != 1 {
		t.Fatalf("later addition must stay pending and live, pending=%d live=%d", mgr.Len(), store.Live())
	}
	if n := mgr.Release(taken); n != 0 {
		t.Fatalf("second Release freed %d, want 0", n)
	}
}
