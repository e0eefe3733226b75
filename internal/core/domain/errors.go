package domain

import "errors"

var (
	ErrUnauthorized   = errors.New("unauthorized access to resource")
	ErrForbiddenRole  = errors.New("operation not allowed for this role")
	ErrInvalidDate    = errors.New("invalid date range")
	ErrRangeTooLarge  = errors.New("date range too large")
	ErrInvalidPaging  = errors.New("invalid pagination parameters")
	ErrInvalidComment = errors.New("feedback comment is required")
)
