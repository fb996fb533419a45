package models

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// PubkeySize is the byte length of identities and record addresses.
const PubkeySize = 32

var ErrInvalidPubkey = errors.New("invalid public key")

// Pubkey is a 32-byte identity. Author identities are ed25519 public keys;
// record addresses share the representation but are never valid curve points.
type Pubkey [PubkeySize]byte

// ParsePubkey decodes the base58 text form of a Pubkey.
func ParsePubkey(s string) (Pubkey, error) {
	var p Pubkey
	raw := base58.Decode(s)
	if len(raw) != PubkeySize {
		return p, fmt.Errorf("%w: %q", ErrInvalidPubkey, s)
	}
	copy(p[:], raw)
	return p, nil
}

// PubkeyFromBytes copies b into a Pubkey.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var p Pubkey
	if len(b) != PubkeySize {
		return p, fmt.Errorf("%w: got %d bytes", ErrInvalidPubkey, len(b))
	}
	copy(p[:], b)
	return p, nil
}

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Bytes() []byte {
	return p[:]
}

func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
