package services

import (
	"errors"

	"blogledger/app/models"

	"github.com/go-playground/validator/v10"
)

// Length caps, in bytes. Creation and update caps differ; an update is
// further bounded by the space allocated when the post was created.
const (
	MaxPostTitleLength          = 128
	MaxPostContentLength        = 2048
	MaxUpdatedPostTitleLength   = 100
	MaxUpdatedPostContentLength = 5000
	MaxCommentLength            = 1024
)

type createPostInput struct {
	Title   string `validate:"maxbytes=128"`
	Content string `validate:"maxbytes=2048"`
}

type updatePostInput struct {
	Title   string `validate:"maxbytes=100"`
	Content string `validate:"maxbytes=5000"`
}

type createCommentInput struct {
	Content string `validate:"maxbytes=1024"`
}

var inputFieldErrors = map[string]error{
	"Title":   ErrTitleTooLong,
	"Content": ErrContentTooLong,
}

// checkInput runs the struct caps and maps the first failing field onto
// its domain error. overrides replaces the default mapping per field.
func checkInput(in any, overrides map[string]error) error {
	err := models.Validator().Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	field := verrs[0].Field()
	if mapped, ok := overrides[field]; ok {
		return mapped
	}
	if mapped, ok := inputFieldErrors[field]; ok {
		return mapped
	}
	return err
}
