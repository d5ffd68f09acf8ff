package domain

import "errors"

// ErrConfiguration marks an unrecognized enum value supplied at creation
// time. Operations reject it synchronously before creating any resource.
var ErrConfiguration = errors.New("configuration error")
