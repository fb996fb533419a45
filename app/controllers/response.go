package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"blogledger/app/middleware"
	"blogledger/app/models"
	"blogledger/app/pda"
	"blogledger/app/repositories"
	"blogledger/app/services"

	"github.com/gorilla/mux"
)

var errBadRequest = errors.New("bad request")

// refResponse carries a derived address and the bump it was found with
type refResponse struct {
	Address models.Pubkey `json:"address"`
	Bump    uint8         `json:"bump"`
}

func newRefResponse(ref pda.Ref) refResponse {
	return refResponse{Address: ref.Address, Bump: ref.Bump}
}

type recordResponse struct {
	Address models.Pubkey `json:"address"`
	Bump    *uint8        `json:"bump,omitempty"`
	Kind    string        `json:"kind"`
	Record  any           `json:"record"`
}

func newRecordResponse(ref pda.Ref, kind models.Kind, rec any) recordResponse {
	bump := ref.Bump
	return recordResponse{Address: ref.Address, Bump: &bump, Kind: kind.String(), Record: rec}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  uint32 `json:"code,omitempty"`
}

// Helper methods for consistent response handling

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError writes err with the status its kind maps to
func sendError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	sendJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func errorStatus(err error) (int, uint32) {
	var perr *services.ProgramError
	if errors.As(err, &perr) {
		switch {
		case errors.Is(perr, services.ErrUnauthorized):
			return http.StatusForbidden, perr.Code
		default:
			return http.StatusUnprocessableEntity, perr.Code
		}
	}
	switch {
	case errors.Is(err, middleware.ErrMissingSignature):
		return http.StatusUnauthorized, 0
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, 0
	case errors.Is(err, repositories.ErrAlreadyExists),
		errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, 0
	case errors.Is(err, pda.ErrSeedsMismatch),
		errors.Is(err, services.ErrWrongAccountKind),
		errors.Is(err, models.ErrInvalidPubkey),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, 0
	}
	return http.StatusInternalServerError, 0
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, middleware.MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", errBadRequest, err)
	}
	return nil
}

// caller returns the identity Authenticate put in the request context
func caller(r *http.Request) (models.Pubkey, error) {
	identity, ok := middleware.Identity(r.Context())
	if !ok {
		return models.Pubkey{}, middleware.ErrMissingSignature
	}
	return identity, nil
}

func pathPubkey(r *http.Request, name string) (models.Pubkey, error) {
	return models.ParsePubkey(mux.Vars(r)[name])
}

func pathUint64(r *http.Request, name string) (uint64, error) {
	v, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return v, nil
}

// pathRef reads a caller-supplied record reference: the address from the
// path and its bump from the query string.
func pathRef(r *http.Request) (pda.Ref, error) {
	addr, err := pathPubkey(r, "address")
	if err != nil {
		return pda.Ref{}, err
	}
	bump, err := strconv.ParseUint(r.URL.Query().Get("bump"), 10, 8)
	if err != nil {
		return pda.Ref{}, fmt.Errorf("%w: invalid bump", errBadRequest)
	}
	return pda.Ref{Address: addr, Bump: uint8(bump)}, nil
}
