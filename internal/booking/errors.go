package booking

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest matches every RequestError.
var ErrInvalidRequest = errors.New("invalid request")

// RequestError is a client input problem. Its message is shown to the user.
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string { return e.Msg }

func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

func invalidf(format string, args ...any) error {
	return &RequestError{Msg: fmt.Sprintf(format, args...)}
}
