package controllers

import (
	"net/http"

	"blogledger/app/models"
	"blogledger/app/services"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	service *services.BlogService
}

// NewCommentController creates a new CommentController
func NewCommentController(service *services.BlogService) *CommentController {
	return &CommentController{service: service}
}

type createCommentRequest struct {
	Content string `json:"content"`
}

type createCommentResponse struct {
	CommentID uint64 `json:"comment_id"`
	refResponse
}

// Create handles adding a comment to the post named by the path
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	commenter, err := caller(r)
	if err != nil {
		sendError(w, err)
		return
	}
	postRef, err := pathRef(r)
	if err != nil {
		sendError(w, err)
		return
	}
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, err)
		return
	}
	commentID, ref, err := cc.service.CreateComment(r.Context(), commenter, postRef, req.Content)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, createCommentResponse{CommentID: commentID, refResponse: newRefResponse(ref)})
}

func (cc *CommentController) Show(w http.ResponseWriter, r *http.Request) {
	postAuthor, err := pathPubkey(r, "postAuthor")
	if err != nil {
		sendError(w, err)
		return
	}
	postID, err := pathUint64(r, "postId")
	if err != nil {
		sendError(w, err)
		return
	}
	commentID, err := pathUint64(r, "commentId")
	if err != nil {
		sendError(w, err)
		return
	}
	comment, ref, err := cc.service.GetComment(r.Context(), postAuthor, postID, commentID)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, newRecordResponse(ref, models.KindComment, comment))
}
