package service

import (
	"errors"
	"strings"
)

// ErrorCause returns the message of err with the leading sentinel text removed, for
// response bodies that prefix their own wording ("Error processing QR code: <cause>").
func ErrorCause(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if sentinel != nil && errors.Is(err, sentinel) {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}
