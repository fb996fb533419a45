package middleware

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"io"
	"net/http"

	"blogledger/app/models"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/sha3"
)

const (
	IdentityHeader  = "X-Identity"
	SignatureHeader = "X-Signature"

	// MaxBodySize bounds every request body, signed or not
	MaxBodySize = 64 << 10
)

var (
	ErrMissingSignature = errors.New("missing identity or signature")
	ErrBadSignature     = errors.New("signature does not verify")
)

// Digest is what a caller signs: sha3-256 over method, request URI and body
func Digest(method, requestURI string, body []byte) [32]byte {
	h := sha3.New256()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(requestURI))
	h.Write([]byte{'\n'})
	h.Write(body)
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// Sign returns the header values authenticating a request as key's owner
func Sign(key ed25519.PrivateKey, method, requestURI string, body []byte) (identity, signature string) {
	digest := Digest(method, requestURI, body)
	pub := key.Public().(ed25519.PublicKey)
	return base58.Encode(pub), base58.Encode(ed25519.Sign(key, digest[:]))
}

// SignRequest sets the identity and signature headers on req
func SignRequest(req *http.Request, key ed25519.PrivateKey, body []byte) {
	identity, signature := Sign(key, req.Method, req.URL.RequestURI(), body)
	req.Header.Set(IdentityHeader, identity)
	req.Header.Set(SignatureHeader, signature)
}

// Authenticate requires a valid signature from the claimed identity and
// puts the identity in the request context. The body is buffered and
// handed on unchanged.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := models.ParsePubkey(r.Header.Get(IdentityHeader))
		sig := base58.Decode(r.Header.Get(SignatureHeader))
		if err != nil || len(sig) != ed25519.SignatureSize {
			writeError(w, http.StatusUnauthorized, ErrMissingSignature.Error(), 0)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large", 0)
				return
			}
			writeError(w, http.StatusBadRequest, "failed to read request body", 0)
			return
		}
		digest := Digest(r.Method, r.RequestURI, body)
		if !ed25519.Verify(ed25519.PublicKey(identity.Bytes()), digest[:], sig) {
			writeError(w, http.StatusUnauthorized, ErrBadSignature.Error(), 0)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity returns ctx carrying an authenticated identity
func WithIdentity(ctx context.Context, identity models.Pubkey) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// Identity returns the authenticated caller, if any
func Identity(ctx context.Context) (models.Pubkey, bool) {
	identity, ok := ctx.Value(identityKey).(models.Pubkey)
	return identity, ok
}
