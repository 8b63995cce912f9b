package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingEditionID is returned when a write names no edition.
	ErrMissingEditionID = errors.New("backend: missing edition id")
	// ErrEmptyUpload is returned when a registration carries no items.
	ErrEmptyUpload = errors.New("backend: upload has no items")
)

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend: %s status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("backend: %s status %d: %s", e.Op, e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == 404
}
