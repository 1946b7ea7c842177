package domain

import "errors"

var (
	ErrEntryNotFound    = errors.New("directory entry not found")
	ErrRecordNotFound   = errors.New("record not found")
	ErrNotGroupMember   = errors.New("user is not a member of the enrollment group")
	ErrRetriesExhausted = errors.New("retries exhausted")
)
