package controllers

import (
	"net/http"

	"blogledger/app/models"
	"blogledger/app/services"
)

// BlogController handles HTTP requests for blogs and profiles, the two
// per-author root records
type BlogController struct {
	service *services.BlogService
}

func NewBlogController(service *services.BlogService) *BlogController {
	return &BlogController{service: service}
}

type initializeProfileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

// InitializeBlog creates the caller's blog
func (bc *BlogController) InitializeBlog(w http.ResponseWriter, r *http.Request) {
	author, err := caller(r)
	if err != nil {
		sendError(w, err)
		return
	}
	ref, err := bc.service.InitializeBlog(r.Context(), author)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, newRefResponse(ref))
}

func (bc *BlogController) ShowBlog(w http.ResponseWriter, r *http.Request) {
	author, err := pathPubkey(r, "author")
	if err != nil {
		sendError(w, err)
		return
	}
	blog, ref, err := bc.service.GetBlog(r.Context(), author)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, newRecordResponse(ref, models.KindBlog, blog))
}

// InitializeProfile creates the caller's profile
func (bc *BlogController) InitializeProfile(w http.ResponseWriter, r *http.Request) {
	author, err := caller(r)
	if err != nil {
		sendError(w, err)
		return
	}
	var req initializeProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, err)
		return
	}
	ref, err := bc.service.InitializeProfile(r.Context(), author, req.DisplayName, req.Bio, req.AvatarURL)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, newRefResponse(ref))
}

func (bc *BlogController) ShowProfile(w http.ResponseWriter, r *http.Request) {
	author, err := pathPubkey(r, "author")
	if err != nil {
		sendError(w, err)
		return
	}
	profile, ref, err := bc.service.GetProfile(r.Context(), author)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, newRecordResponse(ref, models.KindProfile, profile))
}
