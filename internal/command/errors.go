package command

import "errors"

// ErrNotFound means the text named no registered command. It is never shown
// to users.
var ErrNotFound = errors.New("command not found")

// ErrPermission is returned when a privileged command is invoked by someone
// without the bot's user role.
var ErrPermission = errors.New("You can't perform this action")

// InvalidArgumentsError carries the usage text shown for malformed arguments.
type InvalidArgumentsError struct {
	Usage string
	Err   error
}

func (e *InvalidArgumentsError) Error() string {
	if e.Err != nil {
		return "invalid arguments: " + e.Err.Error()
	}
	return "invalid arguments"
}

func (e *InvalidArgumentsError) Unwrap() error { return e.Err }
