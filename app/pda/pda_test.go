package pda

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"blogledger/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProgram = models.Pubkey{0x42, 0x13, 0x37}

func TestFindIsDeterministic(t *testing.T) {
	author := models.Pubkey{7}
	a1, b1, err := Find(testProgram, BlogSeeds(author)...)
	require.NoError(t, err)
	a2, b2, err := Find(testProgram, BlogSeeds(author)...)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}

func TestFindMatchesCreateWithBump(t *testing.T) {
	seeds := PostSeeds(models.Pubkey{1}, 12)
	addr, bump, err := Find(testProgram, seeds...)
	require.NoError(t, err)

	created, err := Create(testProgram, append(seeds, []byte{bump})...)
	require.NoError(t, err)
	assert.Equal(t, addr, created)
	assert.False(t, onCurve(addr[:]), "derived addresses are never curve points")
}

func TestAddressesAreDistinct(t *testing.T) {
	author := models.Pubkey{7}
	other := models.Pubkey{8}
	d := NewDeriver(testProgram)

	seen := map[models.Pubkey]string{}
	add := func(name string, ref Ref, err error) {
		t.Helper()
		require.NoError(t, err)
		prev, dup := seen[ref.Address]
		require.False(t, dup, "%s collides with %s", name, prev)
		seen[ref.Address] = name
	}

	ref, err := d.Blog(author)
	add("blog", ref, err)
	ref, err = d.Profile(author)
	add("profile", ref, err)
	ref, err = d.Blog(other)
	add("other blog", ref, err)
	for i := uint64(0); i < 3; i++ {
		ref, err = d.Post(author, i)
		add("post", ref, err)
		ref, err = d.Comment(author, 0, i)
		add("comment", ref, err)
	}

	ref, err = NewDeriver(models.Pubkey{1}).Blog(author)
	add("blog under another program", ref, err)
}

func TestVerify(t *testing.T) {
	seeds := CommentSeeds(models.Pubkey{3}, 1, 2)
	addr, bump, err := Find(testProgram, seeds...)
	require.NoError(t, err)

	t.Run("canonical", func(t *testing.T) {
		assert.NoError(t, Verify(testProgram, addr, bump, seeds...))
	})

	t.Run("wrong bump", func(t *testing.T) {
		assert.ErrorIs(t, Verify(testProgram, addr, bump-1, seeds...), ErrSeedsMismatch)
	})

	t.Run("wrong address", func(t *testing.T) {
		other := addr
		other[0] ^= 0xFF
		assert.ErrorIs(t, Verify(testProgram, other, bump, seeds...), ErrSeedsMismatch)
	})

	t.Run("different ordinal", func(t *testing.T) {
		assert.ErrorIs(t,
			Verify(testProgram, addr, bump, CommentSeeds(models.Pubkey{3}, 1, 3)...),
			ErrSeedsMismatch)
	})
}

func TestVerifyPost(t *testing.T) {
	d := NewDeriver(testProgram)
	post := &models.Post{Author: models.Pubkey{5}, PostID: 9}
	ref, err := d.Post(post.Author, post.PostID)
	require.NoError(t, err)

	assert.NoError(t, d.VerifyPost(ref, post))

	post.PostID = 10
	assert.ErrorIs(t, d.VerifyPost(ref, post), ErrSeedsMismatch)
}

func TestSeedLimits(t *testing.T) {
	_, err := Create(testProgram, bytes.Repeat([]byte{1}, MaxSeedLength+1))
	assert.ErrorIs(t, err, ErrMaxSeedLengthExceeded)

	seeds := make([][]byte, MaxSeeds)
	_, _, err = Find(testProgram, seeds...)
	assert.ErrorIs(t, err, ErrMaxSeedsExceeded)

	_, err = Create(testProgram, make([][]byte, MaxSeeds+1)...)
	assert.ErrorIs(t, err, ErrMaxSeedsExceeded)
}

func TestOnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	assert.True(t, onCurve(pub))
}

func TestU64SeedLittleEndian(t *testing.T) {
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, U64Seed(1))
	assert.Equal(t, []byte{0, 1, 0, 0, 0, 0, 0, 0}, U64Seed(256))
}
