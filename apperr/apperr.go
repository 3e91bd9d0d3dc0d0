// Package apperr carries the structured error payload every failed request
// renders: {statusCode, error, details:{type, id, activity}}. Details name
// the resource kind, the resource id, and the attempted activity so clients
// can tell which operation on which resource failed.
package apperr

import "net/http"

type Details struct {
	Type     string `json:"type,omitempty"`
	Id       string `json:"id,omitempty"`
	Activity string `json:"activity,omitempty"`
}

type Error struct {
	StatusCode int     `json:"statusCode"`
	Message    string  `json:"error"`
	Details    Details `json:"details"`
}

func (e *Error) Error() string {
	return e.Message
}

func BadRequest(message string, details Details) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Message: message, Details: details}
}

func Unauthorized(message string) *Error {
	return &Error{StatusCode: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string, details Details) *Error {
	return &Error{StatusCode: http.StatusForbidden, Message: message, Details: details}
}

func NotFound(message string, details Details) *Error {
	return &Error{StatusCode: http.StatusNotFound, Message: message, Details: details}
}
