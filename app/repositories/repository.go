package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"blogledger/app/models"

	"github.com/dgraph-io/badger/v4"
)

// Repository implements AccountStore on top of BadgerDB
type Repository struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewRepository opens the database at path. An empty path opens an
// in-memory database, which is what the tests use.
func NewRepository(path string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(path).
		WithLogger(newBadgerLogger(logger)).
		WithLoggingLevel(badger.WARNING).
		WithNumVersionsToKeep(1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Repository{db: db, logger: logger}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// DB returns the underlying badger handle
func (r *Repository) DB() *badger.DB {
	return r.db
}

func (r *Repository) View(ctx context.Context, fn func(AccountReader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn})
	})
}

func (r *Repository) Update(ctx context.Context, fn func(AccountTxn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn})
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// Backup streams a full backup of the database to w and returns the
// version it is consistent at.
func (r *Repository) Backup(w io.Writer) (uint64, error) {
	return r.db.Backup(w, 0)
}

// Restore loads a backup produced by Backup.
func (r *Repository) Restore(rd io.Reader) error {
	return r.db.Load(rd, 256)
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t *badgerTxn) Get(addr models.Pubkey) (*Account, error) {
	item, err := t.txn.Get(accountKey(addr))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	if err != nil {
		return nil, err
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return &Account{Address: addr, Data: data}, nil
}

func (t *badgerTxn) Create(addr models.Pubkey, space int, data []byte) error {
	key := accountKey(addr)
	_, err := t.txn.Get(key)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, addr)
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	buf, err := fitAllocation(space, data)
	if err != nil {
		return err
	}
	return t.txn.Set(key, buf)
}

func (t *badgerTxn) Write(addr models.Pubkey, data []byte) error {
	acct, err := t.Get(addr)
	if err != nil {
		return err
	}
	buf, err := fitAllocation(acct.Space(), data)
	if err != nil {
		return err
	}
	return t.txn.Set(accountKey(addr), buf)
}

func (t *badgerTxn) Close(addr models.Pubkey) (uint64, error) {
	acct, err := t.Get(addr)
	if err != nil {
		return 0, err
	}
	if err := t.txn.Delete(accountKey(addr)); err != nil {
		return 0, err
	}
	return uint64(acct.Space()), nil
}
