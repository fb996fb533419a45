package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"blogledger/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createCommentBody struct {
	CommentID uint64 `json:"comment_id"`
	refBody
}

type commentRecordBody struct {
	Address models.Pubkey  `json:"address"`
	Kind    string         `json:"kind"`
	Record  models.Comment `json:"record"`
}

func TestCommentController(t *testing.T) {
	svc, _ := setupTestService(t)
	router := setupRouter(svc)
	alice := newIdentity(t)
	bob := newIdentity(t)

	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/blogs", &alice, nil).Code)
	w := do(t, router, http.MethodPost, "/posts", &alice, map[string]string{"title": "t", "content": "c"})
	require.Equal(t, http.StatusCreated, w.Code)
	post := decode[createPostBody](t, w)

	t.Run("create comments", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			w := do(t, router, http.MethodPost, commentsPath(post.refBody), &bob,
				map[string]string{"content": "comment"})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			res := decode[createCommentBody](t, w)
			assert.Equal(t, uint64(i), res.CommentID)

			ref, err := svc.Deriver().Comment(alice.pubkey, 0, uint64(i))
			require.NoError(t, err)
			assert.Equal(t, ref.Address, res.Address)
		}
	})

	t.Run("get comment", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/comments/"+alice.pubkey.String()+"/0/2", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[commentRecordBody](t, w)
		assert.Equal(t, "comment", res.Kind)
		assert.Equal(t, bob.pubkey, res.Record.Commenter)
		assert.Equal(t, alice.pubkey, res.Record.PostAuthor)
		assert.Equal(t, uint64(2), res.Record.CommentID)
	})

	t.Run("comment too long", func(t *testing.T) {
		w := do(t, router, http.MethodPost, commentsPath(post.refBody), &bob,
			map[string]string{"content": strings.Repeat("c", 1025)})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, uint32(6004), decode[errorResponse](t, w).Code)
	})

	t.Run("comment on an unknown address", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/posts/"+models.Pubkey{9}.String()+"/comments?bump=255", &bob,
			map[string]string{"content": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid address", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/posts/0OIl/comments?bump=1", &bob, map[string]string{"content": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func commentsPath(post refBody) string {
	return fmt.Sprintf("/posts/%s/comments?bump=%d", post.Address, post.Bump)
}
