package repositories

import (
	"errors"
	"fmt"
	"log/slog"

	"blogledger/app/models"
)

const (
	// AccountKeyPrefix prefixes every record key; the rest is the 32-byte address
	AccountKeyPrefix = "acct:"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrAlreadyExists    = errors.New("account already in use")
	ErrCapacityExceeded = errors.New("data exceeds allocated account space")
	ErrConflict         = errors.New("transaction conflict")
)

func accountKey(addr models.Pubkey) []byte {
	key := make([]byte, 0, len(AccountKeyPrefix)+models.PubkeySize)
	key = append(key, AccountKeyPrefix...)
	return append(key, addr[:]...)
}

// fitAllocation copies data into a buffer of exactly space bytes, zero
// padding the tail.
func fitAllocation(space int, data []byte) ([]byte, error) {
	if len(data) > space {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrCapacityExceeded, len(data), space)
	}
	buf := make([]byte, space)
	copy(buf, data)
	return buf, nil
}

// badgerLogger routes badger's printf-style logging onto slog
type badgerLogger struct {
	logger *slog.Logger
}

func newBadgerLogger(logger *slog.Logger) *badgerLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &badgerLogger{logger: logger.With("component", "badger")}
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.logger.Error(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.logger.Warn(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.logger.Info(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.logger.Debug(fmt.Sprintf(format, args...))
}
