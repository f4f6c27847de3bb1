package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

/*
	Domain error type and utility functions to facillitate
	returning stable machine-readable error responses to
	HTTP clients. Every failure path in the query engine
	funnels through one of these constructors.
*/

type ServerError struct {
	Name    string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func NewInvalidJson(message string) *ServerError {
	return &ServerError{
		Name:    "InvalidJsonException",
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewInvalidField(field string) *ServerError {
	return &ServerError{
		Name:    "InvalidFieldError",
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf("unknown field '%s'", field),
	}
}

func NewInvalidFilter(operator string) *ServerError {
	return &ServerError{
		Name:    "InvalidFilterError",
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf("unknown filter operator '%s'", operator),
	}
}

func NewInvalidTable(table string) *ServerError {
	return &ServerError{
		Name:    "InvalidTableError",
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf("unknown table '%s'", table),
	}
}

func NewInvalidLogic(message string) *ServerError {
	return &ServerError{
		Name:    "InvalidLogicException",
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewNotAuthorized() *ServerError {
	return &ServerError{
		Name:    "NotAuthorizedException",
		Code:    http.StatusUnauthorized,
		Message: "Not authorized to access this dataset",
	}
}

// NewNotFound derives the per-entity exception name from the
// singular entity label, e.g. "patient" -> PatientNotFoundException.
func NewNotFound(entity string, id string) *ServerError {
	return &ServerError{
		Name:    fmt.Sprintf("%sNotFoundException", strings.Title(entity)),
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("no %s found with id '%s'", entity, id),
	}
}

func NewCancelled() *ServerError {
	return &ServerError{
		Name:    "CancelledError",
		Code:    http.StatusInternalServerError,
		Message: "request cancelled or timed out",
	}
}

// NewInternal deliberately carries no detail beyond the request id ;
// the cause is logged server side only.
func NewInternal(requestId string) *ServerError {
	return &ServerError{
		Name:    "InternalServerError",
		Code:    http.StatusInternalServerError,
		Message: fmt.Sprintf("something went wrong, please contact the administrator (request %s)", requestId),
	}
}

// FromError maps any error to a ServerError, defaulting to the
// opaque internal variant for unrecognized causes.
func FromError(err error, requestId string) *ServerError {
	var serverError *ServerError
	if stderrors.As(err, &serverError) {
		return serverError
	}
	return NewInternal(requestId)
}
