package console

import "errors"

var (
	// ErrErrorLimit indicates that interpretation stopped because the error limit was reached.
	ErrErrorLimit = errors.New("error limit reached")

	// ErrSourceDepth indicates that source commands were nested too deeply.
	ErrSourceDepth = errors.New("source files nested too deeply")

	// ErrInvalidParam indicates that an option value is out of its valid range.
	ErrInvalidParam = errors.New("invalid option value")
)
