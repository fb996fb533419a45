package models

// NextPostID returns the id the next post receives and the counter value
// after handing it out
func (b *Blog) NextPostID() (id uint64, next uint64, err error) {
	return nextOrdinal(b.PostCount)
}
