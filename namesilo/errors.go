package namesilo

import (
	"errors"
	"fmt"
)

const (
	// CodeDuplicate is returned when a record with the same host, type and
	// value already exists.
	CodeDuplicate = "280"

	detailSuccess = "success"
)

// APIError is any reply whose detail is not "success".
type APIError struct {
	Operation string
	Code      string
	Detail    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("namesilo: %s failed with code %s: %s", e.Operation, e.Code, e.Detail)
}

// IsDuplicate reports whether err is a duplicate-conflict reply.
func IsDuplicate(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeDuplicate
}
