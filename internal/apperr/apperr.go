// Package apperr carries the typed failures every core operation returns.
// Handlers never hand a raw store error to the client: constraint
// violations are translated here and anything unexpected becomes an
// Internal error that is logged but not detailed to the caller.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindUnauthenticated
	KindInternal
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal error"
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error      { return &Error{Kind: KindValidation, Message: msg} }
func NotFound(msg string) *Error        { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) *Error       { return &Error{Kind: KindForbidden, Message: msg} }
func Conflict(msg string) *Error        { return &Error{Kind: KindConflict, Message: msg} }
func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }

func Internal(err error) *Error { return &Error{Kind: KindInternal, Err: err} }

// FromDB maps store failures onto typed kinds: missing rows become
// NotFound with the given message, unique and foreign key violations
// become Conflict, everything else is Internal.
func FromDB(err error, notFoundMsg string) *Error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(notFoundMsg)
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return Conflict("a record with those unique values already exists")
		case "23503":
			return Conflict("the record is referenced by other data")
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Conflict("a record with those unique values already exists")
	}
	return Internal(err)
}

func status(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the error as a status-coded JSON body. Internal errors
// are logged with their cause and masked in the response.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}
	if appErr.Kind == KindInternal {
		logrus.WithError(appErr.Err).WithField("path", c.FullPath()).Error("internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status(appErr.Kind), gin.H{"error": appErr.Error()})
}
