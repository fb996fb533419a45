package models

import (
	"errors"
	"math"
)

// ErrCounterOverflow is returned when a sequence counter is already at its maximum.
var ErrCounterOverflow = errors.New("sequence counter overflow")

// Validate checks the invariants of a Post record
func (p *Post) Validate() error {
	return validate.Struct(p)
}

// Touch sets the update timestamp
func (p *Post) Touch(now int64) {
	p.UpdatedAt = now
}

// NextCommentID returns the id the next comment receives and the counter
// value after handing it out
func (p *Post) NextCommentID() (id uint64, next uint64, err error) {
	return nextOrdinal(p.CommentCount)
}

func nextOrdinal(count uint64) (uint64, uint64, error) {
	if count == math.MaxUint64 {
		return 0, 0, ErrCounterOverflow
	}
	return count, count + 1, nil
}
