package models

import (
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// maxbytes caps the UTF-8 byte length of a string; the builtin max counts runes
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	_ = v.RegisterValidation("pubkey", func(fl validator.FieldLevel) bool {
		_, err := ParsePubkey(fl.Field().String())
		return err == nil
	})
	return v
}

// Validator returns the shared validator with the record-store validations
// (maxbytes, pubkey) registered.
func Validator() *validator.Validate {
	return validate
}
