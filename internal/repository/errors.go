package repository

import "fmt"

// ErrNotFound reports a missing resource at the repository layer.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

// IsNotFound checks whether an error is a repository not-found error.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}

// ErrConflict reports a uniqueness or state conflict.
type ErrConflict struct {
	Resource string
	ID       string
	Reason   string
}

func (e ErrConflict) Error() string {
	return fmt.Sprintf("conflict with %s '%s': %s", e.Resource, e.ID, e.Reason)
}

// IsConflict checks whether an error is a repository conflict error.
func IsConflict(err error) bool {
	_, ok := err.(ErrConflict)
	return ok
}
