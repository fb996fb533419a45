package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"blogledger/app/models"
	"blogledger/app/repositories"
)

// AccountStore is an in-memory AccountStore. Updates are serialized and
// staged, and only applied when the callback succeeds.
type AccountStore struct {
	accounts map[models.Pubkey][]byte
	mutex    sync.RWMutex
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[models.Pubkey][]byte),
	}
}

func (m *AccountStore) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.accounts = make(map[models.Pubkey][]byte)
}

// Len returns the number of stored accounts
func (m *AccountStore) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.accounts)
}

func (m *AccountStore) View(ctx context.Context, fn func(repositories.AccountReader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return fn(&txn{store: m})
}

func (m *AccountStore) Update(ctx context.Context, fn func(repositories.AccountTxn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	t := &txn{store: m, staged: make(map[models.Pubkey][]byte)}
	if err := fn(t); err != nil {
		return err
	}
	for addr, data := range t.staged {
		if data == nil {
			delete(m.accounts, addr)
			continue
		}
		m.accounts[addr] = data
	}
	return nil
}

func (m *AccountStore) Backup(w io.Writer) (uint64, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	snapshot := make(map[string][]byte, len(m.accounts))
	for addr, data := range m.accounts {
		snapshot[addr.String()] = data
	}
	return 0, json.NewEncoder(w).Encode(snapshot)
}

func (m *AccountStore) Restore(r io.Reader) error {
	var snapshot map[string][]byte
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for key, data := range snapshot {
		addr, err := models.ParsePubkey(key)
		if err != nil {
			return err
		}
		m.accounts[addr] = data
	}
	return nil
}

func (m *AccountStore) Close() error {
	return nil
}

type txn struct {
	store  *AccountStore
	staged map[models.Pubkey][]byte // nil value marks a deletion
}

func (t *txn) lookup(addr models.Pubkey) ([]byte, bool) {
	if data, ok := t.staged[addr]; ok {
		return data, data != nil
	}
	data, ok := t.store.accounts[addr]
	return data, ok
}

func (t *txn) Get(addr models.Pubkey) (*repositories.Account, error) {
	data, ok := t.lookup(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrNotFound, addr)
	}
	return &repositories.Account{Address: addr, Data: append([]byte(nil), data...)}, nil
}

func (t *txn) Create(addr models.Pubkey, space int, data []byte) error {
	if _, ok := t.lookup(addr); ok {
		return fmt.Errorf("%w: %s", repositories.ErrAlreadyExists, addr)
	}
	if len(data) > space {
		return repositories.ErrCapacityExceeded
	}
	buf := make([]byte, space)
	copy(buf, data)
	t.staged[addr] = buf
	return nil
}

func (t *txn) Write(addr models.Pubkey, data []byte) error {
	cur, ok := t.lookup(addr)
	if !ok {
		return fmt.Errorf("%w: %s", repositories.ErrNotFound, addr)
	}
	if len(data) > len(cur) {
		return repositories.ErrCapacityExceeded
	}
	buf := make([]byte, len(cur))
	copy(buf, data)
	t.staged[addr] = buf
	return nil
}

func (t *txn) Close(addr models.Pubkey) (uint64, error) {
	cur, ok := t.lookup(addr)
	if !ok {
		return 0, fmt.Errorf("%w: %s", repositories.ErrNotFound, addr)
	}
	t.staged[addr] = nil
	return uint64(len(cur)), nil
}
