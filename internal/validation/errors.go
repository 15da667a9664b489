package validation

import "errors"

// RejectionError marks input the user can correct. Its text is shown
// to the user verbatim and it is never logged as an error, unlike
// collaborator failures which come back as ordinary errors.
type RejectionError struct {
	msg string
}

func (e *RejectionError) Error() string {
	return e.msg
}

// Reject builds a user-correctable rejection with the given reason.
func Reject(msg string) error {
	return &RejectionError{msg: msg}
}

// IsRejection reports whether err is a user-correctable rejection.
func IsRejection(err error) bool {
	var r *RejectionError
	return errors.As(err, &r)
}
