package controllers

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blogledger/app/middleware"
	"blogledger/app/models"
	"blogledger/app/pda"
	"blogledger/app/repositories/mock"
	"blogledger/app/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

var testProgramID = models.Pubkey{0x97, 0x4c, 0x44}

type identity struct {
	pubkey models.Pubkey
	key    ed25519.PrivateKey
}

func newIdentity(t *testing.T) identity {
	pub, key, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	pk, err := models.PubkeyFromBytes(pub)
	require.NoError(t, err)
	return identity{pubkey: pk, key: key}
}

func setupTestService(t *testing.T) (*services.BlogService, *mock.AccountStore) {
	store := mock.NewAccountStore()
	svc := services.NewBlogService(
		store,
		pda.NewDeriver(testProgramID),
		nil,
		services.WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }),
		services.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return svc, store
}

func setupRouter(svc *services.BlogService) *mux.Router {
	router := mux.NewRouter()
	bc := NewBlogController(svc)
	pc := NewPostController(svc)
	cc := NewCommentController(svc)
	ac := NewAccountController(svc)
	signed := func(h http.HandlerFunc) http.Handler { return middleware.Authenticate(h) }

	// Register routes manually, mirroring the production table
	router.Handle("/blogs", signed(bc.InitializeBlog)).Methods("POST")
	router.HandleFunc("/blogs/{author}", bc.ShowBlog).Methods("GET")
	router.Handle("/profiles", signed(bc.InitializeProfile)).Methods("POST")
	router.HandleFunc("/profiles/{author}", bc.ShowProfile).Methods("GET")
	router.Handle("/posts", signed(pc.Create)).Methods("POST")
	router.HandleFunc("/posts/{author}/{postId:[0-9]+}", pc.Show).Methods("GET")
	router.Handle("/posts/{address}", signed(pc.Update)).Methods("PUT")
	router.Handle("/posts/{address}", signed(pc.Delete)).Methods("DELETE")
	router.Handle("/posts/{address}/comments", signed(cc.Create)).Methods("POST")
	router.HandleFunc("/comments/{postAuthor}/{postId:[0-9]+}/{commentId:[0-9]+}", cc.Show).Methods("GET")
	router.HandleFunc("/accounts/{address}", ac.Show).Methods("GET")
	router.HandleFunc("/derive/{kind:blog|profile}/{author}", ac.Derive).Methods("GET")
	router.HandleFunc("/derive/{kind:post}/{author}/{postId:[0-9]+}", ac.Derive).Methods("GET")
	router.HandleFunc("/derive/{kind:comment}/{author}/{postId:[0-9]+}/{commentId:[0-9]+}", ac.Derive).Methods("GET")
	return router
}

// do sends a request, signed by as when it is non-nil
func do(t *testing.T, router http.Handler, method, target string, as *identity, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		middleware.SignRequest(req, as.key, payload)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type refBody struct {
	Address models.Pubkey `json:"address"`
	Bump    uint8         `json:"bump"`
}

func (r refBody) query() string {
	return fmt.Sprintf("%s?bump=%d", r.Address, r.Bump)
}
