package rdb

import "errors"

// ErrInUse is returned by restrict-policy deletes when posts still
// reference the row.
var ErrInUse = errors.New("record is referenced by posts")
