package models

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrDiscriminatorMismatch = errors.New("record discriminator mismatch")
	ErrUnknownKind           = errors.New("unknown record kind")
	ErrShortRecord           = errors.New("record data too short")
)

// Kind identifies a record schema.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBlog
	KindPost
	KindComment
	KindProfile
)

var kindNames = map[Kind]string{
	KindBlog:    "BlogAccount",
	KindPost:    "PostAccount",
	KindComment: "CommentAccount",
	KindProfile: "ProfileAccount",
}

var discriminators = func() map[Kind][DiscriminatorSize]byte {
	ret := make(map[Kind][DiscriminatorSize]byte, len(kindNames))
	for kind, name := range kindNames {
		sum := sha256.Sum256([]byte("account:" + name))
		var d [DiscriminatorSize]byte
		copy(d[:], sum[:DiscriminatorSize])
		ret[kind] = d
	}
	return ret
}()

func (k Kind) String() string {
	switch k {
	case KindBlog:
		return "blog"
	case KindPost:
		return "post"
	case KindComment:
		return "comment"
	case KindProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// Discriminator returns the 8-byte tag that prefixes every record of kind k.
func Discriminator(k Kind) [DiscriminatorSize]byte {
	return discriminators[k]
}

// KindOf inspects the discriminator of raw record data.
func KindOf(data []byte) (Kind, error) {
	if len(data) < DiscriminatorSize {
		return KindUnknown, ErrShortRecord
	}
	for kind, d := range discriminators {
		if bytes.Equal(data[:DiscriminatorSize], d[:]) {
			return kind, nil
		}
	}
	return KindUnknown, ErrUnknownKind
}

// Decode decodes raw record data into the matching record type
// (*Blog, *Post, *Comment or *Profile).
func Decode(data []byte) (Kind, any, error) {
	kind, err := KindOf(data)
	if err != nil {
		return kind, nil, err
	}
	var rec interface{ UnmarshalBinary([]byte) error }
	switch kind {
	case KindBlog:
		rec = &Blog{}
	case KindPost:
		rec = &Post{}
	case KindComment:
		rec = &Comment{}
	case KindProfile:
		rec = &Profile{}
	}
	if err := rec.UnmarshalBinary(data); err != nil {
		return kind, nil, err
	}
	return kind, rec, nil
}

// encoder appends fields in the persisted layout.
type encoder struct {
	buf []byte
}

func newEncoder(kind Kind, size int) *encoder {
	d := Discriminator(kind)
	e := &encoder{buf: make([]byte, 0, size)}
	e.buf = append(e.buf, d[:]...)
	return e
}

func (e *encoder) pubkey(p Pubkey) {
	e.buf = append(e.buf, p[:]...)
}

func (e *encoder) u64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *encoder) i64(v int64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v))
}

func (e *encoder) str(s string) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(s)))
	e.buf = append(e.buf, s...)
}

// decoder reads fields in the persisted layout. The first error sticks;
// trailing bytes past the last field are allocation padding.
type decoder struct {
	data []byte
	off  int
	err  error
}

func newDecoder(kind Kind, data []byte) *decoder {
	d := &decoder{data: data}
	if len(data) < DiscriminatorSize {
		d.err = ErrShortRecord
		return d
	}
	want := Discriminator(kind)
	if !bytes.Equal(data[:DiscriminatorSize], want[:]) {
		d.err = fmt.Errorf("%w: expected %s", ErrDiscriminatorMismatch, kind)
		return d
	}
	d.off = DiscriminatorSize
	return d
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.data)-d.off < n {
		d.err = ErrShortRecord
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) pubkey() Pubkey {
	var p Pubkey
	if b := d.take(PubkeySize); b != nil {
		copy(p[:], b)
	}
	return p
}

func (d *decoder) u64() uint64 {
	if b := d.take(u64Size); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) i64() int64 {
	return int64(d.u64())
}

func (d *decoder) str() string {
	b := d.take(LengthPrefixSize)
	if b == nil {
		return ""
	}
	n := binary.LittleEndian.Uint32(b)
	if uint64(n) > uint64(len(d.data)-d.off) {
		d.err = ErrShortRecord
		return ""
	}
	return string(d.take(int(n)))
}

func (b *Blog) MarshalBinary() ([]byte, error) {
	e := newEncoder(KindBlog, BlogSpace)
	e.pubkey(b.Author)
	e.u64(b.PostCount)
	return e.buf, nil
}

func (b *Blog) UnmarshalBinary(data []byte) error {
	d := newDecoder(KindBlog, data)
	b.Author = d.pubkey()
	b.PostCount = d.u64()
	return d.err
}

func (p *Post) MarshalBinary() ([]byte, error) {
	e := newEncoder(KindPost, p.Space())
	e.pubkey(p.Author)
	e.u64(p.PostID)
	e.str(p.Title)
	e.str(p.Content)
	e.i64(p.CreatedAt)
	e.i64(p.UpdatedAt)
	e.u64(p.CommentCount)
	return e.buf, nil
}

func (p *Post) UnmarshalBinary(data []byte) error {
	d := newDecoder(KindPost, data)
	p.Author = d.pubkey()
	p.PostID = d.u64()
	p.Title = d.str()
	p.Content = d.str()
	p.CreatedAt = d.i64()
	p.UpdatedAt = d.i64()
	p.CommentCount = d.u64()
	return d.err
}

func (c *Comment) MarshalBinary() ([]byte, error) {
	e := newEncoder(KindComment, c.Space())
	e.pubkey(c.Commenter)
	e.pubkey(c.PostAuthor)
	e.u64(c.PostID)
	e.u64(c.CommentID)
	e.str(c.Content)
	e.i64(c.CreatedAt)
	return e.buf, nil
}

func (c *Comment) UnmarshalBinary(data []byte) error {
	d := newDecoder(KindComment, data)
	c.Commenter = d.pubkey()
	c.PostAuthor = d.pubkey()
	c.PostID = d.u64()
	c.CommentID = d.u64()
	c.Content = d.str()
	c.CreatedAt = d.i64()
	return d.err
}

func (p *Profile) MarshalBinary() ([]byte, error) {
	e := newEncoder(KindProfile, p.Space())
	e.pubkey(p.Author)
	e.str(p.DisplayName)
	e.str(p.Bio)
	e.str(p.AvatarURL)
	e.i64(p.JoinedAt)
	return e.buf, nil
}

func (p *Profile) UnmarshalBinary(data []byte) error {
	d := newDecoder(KindProfile, data)
	p.Author = d.pubkey()
	p.DisplayName = d.str()
	p.Bio = d.str()
	p.AvatarURL = d.str()
	p.JoinedAt = d.i64()
	return d.err
}
