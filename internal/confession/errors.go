package confession

import "errors"

// ErrInvalidVote is returned for any vote token other than "1" or "-1".
var ErrInvalidVote = errors.New("vote must be 1 (upvote) or -1 (downvote)")

// ErrNotFound mirrors store.ErrNotFound at the service boundary.
var ErrNotFound = errors.New("confession not found")

// ValidationError rejects bad submission input. It is shown to the
// user verbatim and never reaches the store.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
