package model

import "errors"

// ErrClientNotFound is returned by stores when a client id does not resolve.
var ErrClientNotFound = errors.New("client not found")
