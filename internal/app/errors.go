package service

import "errors"

// ErrNotStarted is returned by queries made before Start or after Stop.
var ErrNotStarted = errors.New("service not started")
