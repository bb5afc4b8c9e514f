package util

import "fmt"

// ResponseError carries an HTTP status and a machine-readable code to the
// error handler alongside the human-readable message.
type ResponseError struct {
	Msg    string
	Code   string
	Status int
}

func (e ResponseError) Error() string { return e.Msg }

func NewResponseError(status int, code, format string, args ...interface{}) error {
	return ResponseError{
		Msg:    fmt.Sprintf(format, args...),
		Code:   code,
		Status: status,
	}
}
