package domain

import "errors"

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrRoleNotFound   = errors.New("role not found")
	ErrForbidden      = errors.New("missing permissions")
)
