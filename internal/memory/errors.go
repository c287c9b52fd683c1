package memory

import "errors"

var (
	// ErrInvalidFailRate indicates that a fail rate outside [0, 100] was provided.
	ErrInvalidFailRate = errors.New("fail rate out of range [0, 100]")

	// ErrLeak indicates that blocks were still allocated when none were expected.
	ErrLeak = errors.New("allocated blocks were not freed")
)
