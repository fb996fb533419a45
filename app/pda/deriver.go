package pda

import (
	"blogledger/app/models"
)

// Ref is a caller-supplied record address together with the bump the
// caller claims it was derived with.
type Ref struct {
	Address models.Pubkey `json:"address"`
	Bump    uint8         `json:"bump"`
}

// Deriver binds the derivation helpers to one program id.
type Deriver struct {
	ProgramID models.Pubkey
}

func NewDeriver(programID models.Pubkey) Deriver {
	return Deriver{ProgramID: programID}
}

func (d Deriver) find(seeds [][]byte) (Ref, error) {
	addr, bump, err := Find(d.ProgramID, seeds...)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Address: addr, Bump: bump}, nil
}

func (d Deriver) Blog(author models.Pubkey) (Ref, error) {
	return d.find(BlogSeeds(author))
}

func (d Deriver) Profile(author models.Pubkey) (Ref, error) {
	return d.find(ProfileSeeds(author))
}

func (d Deriver) Post(author models.Pubkey, postID uint64) (Ref, error) {
	return d.find(PostSeeds(author, postID))
}

func (d Deriver) Comment(postAuthor models.Pubkey, postID, commentID uint64) (Ref, error) {
	return d.find(CommentSeeds(postAuthor, postID, commentID))
}

// VerifyPost checks ref against the seeds recorded in the post itself.
func (d Deriver) VerifyPost(ref Ref, post *models.Post) error {
	return Verify(d.ProgramID, ref.Address, ref.Bump, PostSeeds(post.Author, post.PostID)...)
}
