package controllers

import (
	"net/http"

	"blogledger/app/models"
	"blogledger/app/services"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	service *services.BlogService
}

// NewPostController creates a new PostController
func NewPostController(service *services.BlogService) *PostController {
	return &PostController{service: service}
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// updatePostRequest leaves a field unchanged when it is absent
type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type createPostResponse struct {
	PostID uint64 `json:"post_id"`
	refResponse
}

// Create handles creating a new post on the caller's blog
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	author, err := caller(r)
	if err != nil {
		sendError(w, err)
		return
	}
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, err)
		return
	}
	postID, ref, err := pc.service.CreatePost(r.Context(), author, req.Title, req.Content)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, createPostResponse{PostID: postID, refResponse: newRefResponse(ref)})
}

// Show handles displaying a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	author, err := pathPubkey(r, "author")
	if err != nil {
		sendError(w, err)
		return
	}
	postID, err := pathUint64(r, "postId")
	if err != nil {
		sendError(w, err)
		return
	}
	post, ref, err := pc.service.GetPost(r.Context(), author, postID)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, newRecordResponse(ref, models.KindPost, post))
}

// Update handles editing an existing post
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		sendError(w, err)
		return
	}
	ref, err := pathRef(r)
	if err != nil {
		sendError(w, err)
		return
	}
	var req updatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, err)
		return
	}
	post, err := pc.service.UpdatePost(r.Context(), identity, ref, req.Title, req.Content)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, newRecordResponse(ref, models.KindPost, post))
}

// Delete handles deleting a post
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		sendError(w, err)
		return
	}
	ref, err := pathRef(r)
	if err != nil {
		sendError(w, err)
		return
	}
	if err := pc.service.DeletePost(r.Context(), identity, ref); err != nil {
		sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
