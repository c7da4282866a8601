package closure

import "errors"

// ErrInvalidSchema marks a registration with a zero size or a field type
// closures cannot carry.
var ErrInvalidSchema = errors.New("invalid closure schema")
