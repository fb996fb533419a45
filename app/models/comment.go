package models

import (
	"errors"
)

// SetPost binds the comment to its parent post and claims the post's next
// comment ordinal. The post's counter is advanced only on success.
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}
	id, next, err := post.NextCommentID()
	if err != nil {
		return err
	}
	c.PostAuthor = post.Author
	c.PostID = post.PostID
	c.CommentID = id
	post.CommentCount = next
	return nil
}
