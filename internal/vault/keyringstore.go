package vault

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/99designs/keyring"

	"ether-vault/go-keystore/pkg/keystore"
)

// KeyringStore keeps records in the OS keychain via 99designs/keyring. The
// keychain has no file metadata, so creation time rides along in the stored
// payload.
type KeyringStore struct {
	ring keyring.Keyring
	now  func() time.Time
}

type keyringPayload struct {
	CreatedAt time.Time       `json:"created_at"`
	Record    json.RawMessage `json:"record"`
}

func NewKeyringStore(service string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{ServiceName: service})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return &KeyringStore{ring: ring, now: time.Now}, nil
}

// NewKeyringStoreWithConfig exists for tests and callers that need to pin a
// specific backend.
func NewKeyringStoreWithConfig(cfg keyring.Config) (*KeyringStore, error) {
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return &KeyringStore{ring: ring, now: time.Now}, nil
}

func (s *KeyringStore) Save(ks *keystore.Keystore) (Entry, error) {
	if _, err := s.ring.Get(ks.ID); err == nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrDuplicateID, ks.ID)
	}
	record, err := json.Marshal(ks)
	if err != nil {
		return Entry{}, err
	}
	createdAt := s.now().UTC()
	payload, err := json.Marshal(keyringPayload{CreatedAt: createdAt, Record: record})
	if err != nil {
		return Entry{}, err
	}
	item := keyring.Item{
		Key:   ks.ID,
		Data:  payload,
		Label: "ether-vault keystore " + ks.ID,
	}
	if err := s.ring.Set(item); err != nil {
		return Entry{}, fmt.Errorf("store record: %w", err)
	}
	return Entry{ID: ks.ID, Name: ks.ID, CreatedAt: createdAt}, nil
}

func (s *KeyringStore) Open(id string) (*keystore.Keystore, error) {
	payload, err := s.payload(id)
	if err != nil {
		return nil, err
	}
	return keystore.Parse(payload.Record)
}

func (s *KeyringStore) List() ([]Entry, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("list keyring: %w", err)
	}
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		payload, err := s.payload(key)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{ID: key, Name: key, CreatedAt: payload.CreatedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func (s *KeyringStore) Delete(id string) error {
	if _, err := s.ring.Get(id); err != nil {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return s.ring.Remove(id)
}

func (s *KeyringStore) payload(id string) (keyringPayload, error) {
	item, err := s.ring.Get(id)
	if err != nil {
		return keyringPayload{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	var payload keyringPayload
	if err := json.Unmarshal(item.Data, &payload); err != nil {
		return keyringPayload{}, fmt.Errorf("decode stored record %s: %w", id, err)
	}
	return payload, nil
}
