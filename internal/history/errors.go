package history

import "errors"

var ErrNotFound = errors.New("sync record not found")
