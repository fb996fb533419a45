package services

import (
	"errors"
	"fmt"

	"blogledger/app/repositories"
)

// ProgramError is a domain failure with a stable numeric code
type ProgramError struct {
	Code uint32
	Name string
	Msg  string
}

func (e *ProgramError) Error() string {
	return e.Msg
}

// Is matches on code so wrapped copies compare equal to the sentinels
func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	return ok && t.Code == e.Code
}

var (
	ErrTitleTooLong      = &ProgramError{Code: 6000, Name: "TitleTooLong", Msg: "Title too long"}
	ErrContentTooLong    = &ProgramError{Code: 6001, Name: "ContentTooLong", Msg: "Content too long"}
	ErrUnauthorized      = &ProgramError{Code: 6002, Name: "Unauthorized", Msg: "Unauthorized"}
	ErrNumericalOverflow = &ProgramError{Code: 6003, Name: "NumericalOverflow", Msg: "Numerical overflow"}
	ErrCommentTooLong    = &ProgramError{Code: 6004, Name: "CommentTooLong", Msg: "Comment too long"}
	ErrCapacityExceeded  = &ProgramError{Code: 6005, Name: "CapacityExceeded", Msg: "Update exceeds the post's allocated space"}
)

// Storage failures surface unchanged so callers can match on them
var (
	ErrNotFound      = repositories.ErrNotFound
	ErrAlreadyExists = repositories.ErrAlreadyExists
)

// ErrWrongAccountKind is returned when the record at an address is not the
// kind the operation expects
var ErrWrongAccountKind = errors.New("account holds a different record kind")

// capacityError converts the store's allocation error into the domain error
func capacityError(err error) error {
	if errors.Is(err, repositories.ErrCapacityExceeded) {
		return fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
	}
	return err
}
