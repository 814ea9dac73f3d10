package scheduler

import "errors"

var (
	// ErrStopped rejects refresh jobs submitted before Start or after Stop.
	ErrStopped = errors.New("refresh scheduler stopped")

	// ErrQueueFull means every queue slot already holds a pending refresh.
	ErrQueueFull = errors.New("refresh queue full")

	ErrInvalidConfig = errors.New("invalid refresh scheduler configuration")
)
