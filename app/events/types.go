package events

import (
	"blogledger/app/models"
)

const (
	BlogInitializedEventType    EventType = "blog.initialized"
	ProfileInitializedEventType EventType = "profile.initialized"
	PostCreatedEventType        EventType = "post.created"
	PostUpdatedEventType        EventType = "post.updated"
	PostDeletedEventType        EventType = "post.deleted"
	CommentCreatedEventType     EventType = "comment.created"
)

// AllEventTypes lists every notification the record store emits
var AllEventTypes = []EventType{
	BlogInitializedEventType,
	ProfileInitializedEventType,
	PostCreatedEventType,
	PostUpdatedEventType,
	PostDeletedEventType,
	CommentCreatedEventType,
}

type BlogInitialized struct {
	Author models.Pubkey `json:"author"`
}

type ProfileInitialized struct {
	Author models.Pubkey `json:"author"`
}

type PostCreated struct {
	Author models.Pubkey `json:"author"`
	PostID uint64        `json:"post_id"`
}

type PostUpdated struct {
	Author models.Pubkey `json:"author"`
	PostID uint64        `json:"post_id"`
}

type PostDeleted struct {
	Author models.Pubkey `json:"author"`
	PostID uint64        `json:"post_id"`
}

type CommentCreated struct {
	Commenter  models.Pubkey `json:"commenter"`
	PostAuthor models.Pubkey `json:"post_author"`
	PostID     uint64        `json:"post_id"`
	CommentID  uint64        `json:"comment_id"`
}

// ParseEventType accepts the names in AllEventTypes
func ParseEventType(s string) (EventType, bool) {
	for _, t := range AllEventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}
