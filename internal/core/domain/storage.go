package domain

import "errors"

// ErrStorage wraps every failure to read or write persisted registry state.
var ErrStorage = errors.New("storage error")

// ErrQueueClosed is returned when work is submitted after shutdown began.
var ErrQueueClosed = errors.New("report queue closed")
