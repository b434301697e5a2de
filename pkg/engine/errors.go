package engine

import "errors"

// ErrNoSuchExport is returned by CallFunc/HasFunc lookups that miss.
var ErrNoSuchExport = errors.New("no such exported function")
