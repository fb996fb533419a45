package repositories

import (
	"context"
	"io"

	"blogledger/app/models"
)

// Account is a stored record: its address and its allocated data buffer.
type Account struct {
	Address models.Pubkey
	Data    []byte
}

// Space is the allocation fixed when the account was created.
func (a *Account) Space() int {
	return len(a.Data)
}

// AccountReader reads records by address
type AccountReader interface {
	Get(addr models.Pubkey) (*Account, error)
}

// AccountTxn is the mutation surface available inside one atomic update
type AccountTxn interface {
	AccountReader
	// Create allocates space bytes at addr and writes data into them.
	// It fails with ErrAlreadyExists if addr is occupied.
	Create(addr models.Pubkey, space int, data []byte) error
	// Write replaces the contents of an existing account in place.
	// It fails with ErrCapacityExceeded if data is larger than the allocation.
	Write(addr models.Pubkey, data []byte) error
	// Close removes the account and returns the number of bytes freed.
	Close(addr models.Pubkey) (uint64, error)
}

// AccountStore is the storage environment records live in. Update runs fn
// inside a single transaction that commits only if fn returns nil.
type AccountStore interface {
	View(ctx context.Context, fn func(AccountReader) error) error
	Update(ctx context.Context, fn func(AccountTxn) error) error
	Backup(w io.Writer) (uint64, error)
	Restore(r io.Reader) error
	Close() error
}
