// Package vault persists keystore records at rest. Two backends: a plain
// directory of record files and the OS keychain. Records are opaque encrypted
// blobs either way; the vault never sees passwords or plaintext keys.
package vault

import (
	"errors"
	"fmt"
	"time"

	"ether-vault/go-keystore/pkg/keystore"
)

var (
	ErrRecordNotFound = errors.New("keystore record not found")
	ErrDuplicateID    = errors.New("keystore record id already stored")
)

// Entry describes a stored record without decrypting it.
type Entry struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Store is the at-rest interface the CLI and daemon share.
type Store interface {
	Save(ks *keystore.Keystore) (Entry, error)
	Open(id string) (*keystore.Keystore, error)
	List() ([]Entry, error)
	Delete(id string) error
}

// NewStore selects a backend by name: "file" (default) or "keyring".
func NewStore(backend, dir, service string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(dir)
	case "keyring":
		return NewKeyringStore(service)
	default:
		return nil, fmt.Errorf("unknown vault backend %q", backend)
	}
}
