package export

import "errors"

// ErrNoSnapshot is returned when there is nothing to export.
var ErrNoSnapshot = errors.New("no snapshot to export")
