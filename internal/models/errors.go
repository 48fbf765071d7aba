package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid relationship transition")
	ErrAlreadyBlocked    = fmt.Errorf("%w: a block exists between these users", ErrInvalidTransition)
	ErrNoPendingRequest  = errors.New("no pending follow request")
	ErrSelfReference     = errors.New("cannot target yourself")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrDispatchFailure   = errors.New("notification dispatch failed")

	ErrUserNotFound     = errors.New("user not found")
	ErrNotFound         = errors.New("record not found")
	ErrStateConflict    = errors.New("relationship state changed concurrently")
	ErrRateLimited      = errors.New("too many follow actions, try again later")
	ErrQueueFull        = errors.New("notification queue is full")
	ErrDispatcherClosed = errors.New("notification dispatcher is stopped")
)
