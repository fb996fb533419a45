package controllers

import (
	"fmt"
	"net/http"

	"blogledger/app/models"
	"blogledger/app/pda"
	"blogledger/app/services"

	"github.com/gorilla/mux"
)

// AccountController serves kind-agnostic record reads and address
// derivation for clients that cannot derive locally
type AccountController struct {
	service *services.BlogService
}

func NewAccountController(service *services.BlogService) *AccountController {
	return &AccountController{service: service}
}

// Show decodes whatever record lives at the address
func (ac *AccountController) Show(w http.ResponseWriter, r *http.Request) {
	addr, err := pathPubkey(r, "address")
	if err != nil {
		sendError(w, err)
		return
	}
	kind, rec, err := ac.service.GetAccount(r.Context(), addr)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, recordResponse{Address: addr, Kind: kind.String(), Record: rec})
}

// Derive returns the address and canonical bump for a record's seeds
func (ac *AccountController) Derive(w http.ResponseWriter, r *http.Request) {
	ref, err := ac.derive(r)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, newRefResponse(ref))
}

func (ac *AccountController) derive(r *http.Request) (pda.Ref, error) {
	deriver := ac.service.Deriver()
	kind := mux.Vars(r)["kind"]
	switch kind {
	case models.KindBlog.String(), models.KindProfile.String():
		author, err := pathPubkey(r, "author")
		if err != nil {
			return pda.Ref{}, err
		}
		if kind == models.KindBlog.String() {
			return deriver.Blog(author)
		}
		return deriver.Profile(author)
	case models.KindPost.String():
		author, err := pathPubkey(r, "author")
		if err != nil {
			return pda.Ref{}, err
		}
		postID, err := pathUint64(r, "postId")
		if err != nil {
			return pda.Ref{}, err
		}
		return deriver.Post(author, postID)
	case models.KindComment.String():
		author, err := pathPubkey(r, "author")
		if err != nil {
			return pda.Ref{}, err
		}
		postID, err := pathUint64(r, "postId")
		if err != nil {
			return pda.Ref{}, err
		}
		commentID, err := pathUint64(r, "commentId")
		if err != nil {
			return pda.Ref{}, err
		}
		return deriver.Comment(author, postID, commentID)
	}
	return pda.Ref{}, fmt.Errorf("%w: unknown record kind %q", errBadRequest, kind)
}
