package errors

import "fmt"

// RejectedError is a declined edit on the graph model. Title and Message are
// shown to the operator as-is.
type RejectedError struct {
	Title   string
	Message string
}

func (r *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", r.Title, r.Message)
}

func RejectedErrorf(title string, format string, args ...any) *RejectedError {
	return &RejectedError{
		Title:   title,
		Message: fmt.Sprintf(format, args...),
	}
}

var _ error = &RejectedError{}
