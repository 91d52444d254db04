package gamification

import "errors"

// Error taxonomy for the progress/reward engine. AlreadyAwarded and
// AlreadyClaimed are idempotence rejections: callers treat them as a
// successful no-op, never as a user-facing failure.
var (
	ErrNotFound       = errors.New("record not found")
	ErrAlreadyAwarded = errors.New("badge already awarded")
	ErrAlreadyClaimed = errors.New("challenge reward already claimed")
	ErrNotCompleted   = errors.New("challenge not completed")
)
