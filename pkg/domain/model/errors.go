package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrContentTitleRequired = goerr.New("content title is required")
	ErrContentBodyRequired  = goerr.New("content body is required")
)

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = goerr.New("not found")
