package model

import "errors"

// Sentinel kinds for schedule construction and validation.
var (
	ErrInvalidWeek       = errors.New("week outside season bounds")
	ErrDuplicateGame     = errors.New("team scheduled twice in one week")
	ErrInvalidEntryCount = errors.New("entry count out of range")
)
