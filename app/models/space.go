package models

// Field widths of the persisted layout.
const (
	DiscriminatorSize = 8
	LengthPrefixSize  = 4
	u64Size           = 8
	i64Size           = 8
)

// BlogSpace is the fixed size of a Blog record: discriminator, author, post_count.
const BlogSpace = DiscriminatorSize + PubkeySize + u64Size

// PostSpace returns the size of a Post record holding title and content.
func PostSpace(title, content string) int {
	return DiscriminatorSize +
		PubkeySize + // author
		u64Size + // post_id
		LengthPrefixSize + len(title) +
		LengthPrefixSize + len(content) +
		i64Size + // created_at
		i64Size + // updated_at
		u64Size // comment_count
}

// CommentSpace returns the size of a Comment record holding content.
func CommentSpace(content string) int {
	return DiscriminatorSize +
		PubkeySize + // commenter
		PubkeySize + // post_author
		u64Size + // post_id
		u64Size + // comment_id
		LengthPrefixSize + len(content) +
		i64Size // created_at
}

// ProfileSpace returns the size of a Profile record holding the three text fields.
func ProfileSpace(displayName, bio, avatarURL string) int {
	return DiscriminatorSize +
		PubkeySize +
		LengthPrefixSize + len(displayName) +
		LengthPrefixSize + len(bio) +
		LengthPrefixSize + len(avatarURL) +
		i64Size // joined_at
}

func (p *Post) Space() int {
	return PostSpace(p.Title, p.Content)
}

func (c *Comment) Space() int {
	return CommentSpace(c.Content)
}

func (p *Profile) Space() int {
	return ProfileSpace(p.DisplayName, p.Bio, p.AvatarURL)
}
