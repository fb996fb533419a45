// Package pda derives record addresses from seeds.
//
// An address is sha256(seeds || bump || program id || marker), accepted only
// when the digest is not a valid ed25519 point, so no private key can ever
// sign for it. Find walks the bump down from 255 and returns the first
// viable (canonical) one.
package pda

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"blogledger/app/models"

	"filippo.io/edwards25519"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32

	marker = "ProgramDerivedAddress"
)

// Seed tags. A tag always comes first, which keeps the kinds apart.
const (
	BlogSeed    = "blog"
	ProfileSeed = "profile"
	PostSeed    = "post"
	CommentSeed = "comment"
)

var (
	ErrMaxSeedsExceeded      = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("seed too long")
	ErrOnCurve               = errors.New("derived address is on the ed25519 curve")
	ErrNoViableBump          = errors.New("no viable bump found")
	ErrSeedsMismatch         = errors.New("address does not match its seeds")
)

// Create derives the address for seeds, the last of which is normally the
// one-byte bump.
func Create(programID models.Pubkey, seeds ...[]byte) (models.Pubkey, error) {
	var addr models.Pubkey
	if len(seeds) > MaxSeeds {
		return addr, ErrMaxSeedsExceeded
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return addr, fmt.Errorf("%w: %d bytes", ErrMaxSeedLengthExceeded, len(seed))
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(marker))
	copy(addr[:], h.Sum(nil))
	if onCurve(addr[:]) {
		return models.Pubkey{}, ErrOnCurve
	}
	return addr, nil
}

// Find returns the address for seeds along with its canonical bump.
func Find(programID models.Pubkey, seeds ...[]byte) (models.Pubkey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return models.Pubkey{}, 0, ErrMaxSeedsExceeded
	}
	withBump := append(append(make([][]byte, 0, len(seeds)+1), seeds...), nil)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := Create(programID, withBump...)
		if errors.Is(err, ErrOnCurve) {
			continue
		}
		if err != nil {
			return models.Pubkey{}, 0, err
		}
		return addr, uint8(bump), nil
	}
	return models.Pubkey{}, 0, ErrNoViableBump
}

// Verify checks that addr and bump are the canonical derivation of seeds.
func Verify(programID, addr models.Pubkey, bump uint8, seeds ...[]byte) error {
	want, wantBump, err := Find(programID, seeds...)
	if err != nil {
		return err
	}
	if want != addr || wantBump != bump {
		return fmt.Errorf("%w: %s", ErrSeedsMismatch, addr)
	}
	return nil
}

func onCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// U64Seed encodes an ordinal the way it appears in seeds.
func U64Seed(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

func BlogSeeds(author models.Pubkey) [][]byte {
	return [][]byte{[]byte(BlogSeed), author.Bytes()}
}

func ProfileSeeds(author models.Pubkey) [][]byte {
	return [][]byte{[]byte(ProfileSeed), author.Bytes()}
}

func PostSeeds(author models.Pubkey, postID uint64) [][]byte {
	return [][]byte{[]byte(PostSeed), author.Bytes(), U64Seed(postID)}
}

func CommentSeeds(postAuthor models.Pubkey, postID, commentID uint64) [][]byte {
	return [][]byte{
		[]byte(CommentSeed),
		postAuthor.Bytes(),
		U64Seed(postID),
		U64Seed(commentID),
	}
}
