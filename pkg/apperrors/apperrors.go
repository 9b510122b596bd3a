package apperrors

import "errors"

// ErrStatusConflict is returned when a guarded status update finds the record
// no longer in the expected lifecycle state: either the workflow has moved on
// or a concurrent decision won the race. Exactly one of any set of concurrent
// transitions on the same outpass observes success; the rest observe this.
var ErrStatusConflict = errors.New("record is no longer in the expected status")
