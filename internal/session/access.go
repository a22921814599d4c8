package session

import "errors"

// AccessDeniedError is returned when the caller may not perform an action.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return e.Reason
}

// IsAccessDenied checks if err is, or wraps, an access denied error.
func IsAccessDenied(err error) bool {
	var target *AccessDeniedError
	return errors.As(err, &target)
}

// RequireLogin rejects anonymous callers.
func RequireLogin(sess Context) error {
	if !sess.LoggedIn || sess.UserID == "" {
		return &AccessDeniedError{Reason: "login required"}
	}
	return nil
}
