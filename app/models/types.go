package models

// Blog is the per-author root record. PostCount hands out post ids.
type Blog struct {
	Author    Pubkey `json:"author"`
	PostCount uint64 `json:"post_count"`
}

// Post is a child of a Blog, addressed by (author, post_id).
type Post struct {
	Author       Pubkey `json:"author"`
	PostID       uint64 `json:"post_id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at" validate:"gtefield=CreatedAt"`
	CommentCount uint64 `json:"comment_count"`
}

// Comment is a child of a Post, addressed by (post_author, post_id, comment_id).
type Comment struct {
	Commenter  Pubkey `json:"commenter"`
	PostAuthor Pubkey `json:"post_author"`
	PostID     uint64 `json:"post_id"`
	CommentID  uint64 `json:"comment_id"`
	Content    string `json:"content"`
	CreatedAt  int64  `json:"created_at"`
}

// Profile is the per-author public profile, independent of the Blog.
type Profile struct {
	Author      Pubkey `json:"author"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	JoinedAt    int64  `json:"joined_at"`
}
