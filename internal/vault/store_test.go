package vault

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"

	"ether-vault/go-keystore/internal/testutil/fsperm"
	"ether-vault/go-keystore/pkg/keystore"
)

func encryptRecord(t *testing.T, id string) *keystore.Keystore {
	t.Helper()
	key, err := keystore.DerivePBKDF2("vault test password", keystore.WithIterations(4))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	defer key.Zero()
	ks, err := keystore.Encrypt([]byte("vault test secret"), key, keystore.WithID(id))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	return ks
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	fsperm.AssertPrivateDirPerm(t, dir)

	ks := encryptRecord(t, "11111111-2222-3333-4444-555555555555")
	entry, err := store.Save(ks)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if entry.ID != ks.ID {
		t.Fatalf("entry id %q does not match record id %q", entry.ID, ks.ID)
	}
	fsperm.AssertPrivateFilePerm(t, filepath.Join(dir, entry.Name))

	got, err := store.Open(ks.ID)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if got.ID != ks.ID || !bytes.Equal(got.MAC, ks.MAC) || !bytes.Equal(got.Ciphertext, ks.Ciphertext) {
		t.Fatalf("reopened record differs from saved record")
	}
}

func TestFileStoreListSortsByCreation(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	clock := base
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	ids := []string{"cccc", "aaaa", "bbbb"}
	for _, id := range ids {
		if _, err := store.Save(encryptRecord(t, id)); err != nil {
			t.Fatalf("save %s failed: %v", id, err)
		}
	}
	entries, err := store.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range ids {
		if entries[i].ID != want {
			t.Fatalf("entry %d: got id %q, want %q", i, entries[i].ID, want)
		}
	}
	for i := 1; i < len(entries); i++ {
		if !entries[i-1].CreatedAt.Before(entries[i].CreatedAt) {
			t.Fatalf("entries not ordered by creation time")
		}
	}
}

func TestFileStoreDuplicateID(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	ks := encryptRecord(t, "dup-id")
	if _, err := store.Save(ks); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if _, err := store.Save(ks); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestFileStoreDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	ks := encryptRecord(t, "to-delete")
	if _, err := store.Save(ks); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Delete(ks.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Open(ks.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound after delete, got %v", err)
	}
	if err := store.Delete(ks.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound on second delete, got %v", err)
	}
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	if err := writeFile(filepath.Join(dir, "notes.txt"), "not a record"); err != nil {
		t.Fatalf("seed foreign file: %v", err)
	}
	if err := writeFile(filepath.Join(dir, "UTC--garbage.json"), "{}"); err != nil {
		t.Fatalf("seed malformed name: %v", err)
	}
	entries, err := store.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func newTestKeyringStore(t *testing.T) *KeyringStore {
	t.Helper()
	store, err := NewKeyringStoreWithConfig(keyring.Config{
		ServiceName:     "ether-vault-test",
		AllowedBackends: []keyring.BackendType{keyring.FileBackend},
		FileDir:         t.TempDir(),
		FilePasswordFunc: func(string) (string, error) {
			return "test keyring password", nil
		},
	})
	if err != nil {
		t.Fatalf("open keyring store failed: %v", err)
	}
	return store
}

func TestKeyringStoreRoundTrip(t *testing.T) {
	store := newTestKeyringStore(t)

	ks := encryptRecord(t, "ring-record")
	if _, err := store.Save(ks); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := store.Save(ks); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	got, err := store.Open(ks.ID)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if !bytes.Equal(got.MAC, ks.MAC) || !bytes.Equal(got.Ciphertext, ks.Ciphertext) {
		t.Fatalf("reopened record differs from saved record")
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != ks.ID {
		t.Fatalf("unexpected list result: %+v", entries)
	}

	if err := store.Delete(ks.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Open(ks.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound after delete, got %v", err)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
