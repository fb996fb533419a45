// Package vanity generates ed25519 identities, optionally searching for one
// whose base58 text form starts with a chosen prefix.
package vanity

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"blogledger/app/models"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// progressInterval is how many attempts pass between progress logs
const progressInterval = 1_000_000

var ErrInvalidPrefix = errors.New("prefix contains characters outside the base58 alphabet")

// Key is a generated identity
type Key struct {
	Public   models.Pubkey
	Private  ed25519.PrivateKey
	Attempts uint64
}

// Generate searches with the given number of workers (NumCPU when <= 0)
// until it finds a key whose identity starts with prefix, or ctx ends.
// An empty prefix matches the first key.
func Generate(ctx context.Context, prefix string, workers int, logger *slog.Logger) (*Key, error) {
	if strings.Trim(prefix, base58Alphabet) != "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var totalAttempts atomic.Uint64
	resultChan := make(chan *Key, workers)
	errChan := make(chan error, workers)

	worker := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			pub, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				errChan <- fmt.Errorf("failed to generate key pair: %w", err)
				return
			}
			attempts := totalAttempts.Add(1)
			identity, _ := models.PubkeyFromBytes(pub)
			if strings.HasPrefix(identity.String(), prefix) {
				resultChan <- &Key{Public: identity, Private: priv, Attempts: attempts}
				return
			}
			if attempts%progressInterval == 0 {
				logger.Info("searching for vanity identity", "prefix", prefix, "attempts", attempts)
			}
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker()
		}()
	}

	var res *Key
	var err error
	select {
	case res = <-resultChan:
	case err = <-errChan:
	case <-ctx.Done():
		err = ctx.Err()
	}
	cancel()
	wg.Wait()
	return res, err
}

// Save writes the key as a JSON array of the 64 secret key bytes, the
// keypair file format common in the ed25519 wallet tooling.
func (k *Key) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	ints := make([]int, len(k.Private))
	for i, b := range k.Private {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Load reads a keypair file written by Save
func Load(path string) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []byte
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("invalid keypair file %s: %w", path, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair file %s: got %d bytes", path, len(ints))
	}
	for _, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("invalid keypair file %s: byte out of range", path)
		}
		raw = append(raw, byte(v))
	}
	priv := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !priv.Equal(ed25519.PrivateKey(raw)) {
		return nil, fmt.Errorf("invalid keypair file %s: public half does not match seed", path)
	}
	identity, err := models.PubkeyFromBytes(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Key{Public: identity, Private: priv}, nil
}
