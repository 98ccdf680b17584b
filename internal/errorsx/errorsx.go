// Package errorsx carries an HTTP status on errors so handlers can map
// service failures to responses without switching on every sentinel.
package errorsx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Error struct {
	Status int
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewBadRequestError(err error) *Error {
	return &Error{Status: http.StatusBadRequest, Err: err}
}

func NewUnauthorizedError(err error) *Error {
	return &Error{Status: http.StatusUnauthorized, Err: err}
}

// HandleError writes the status carried by err, defaulting to 500 for
// untyped errors.
func HandleError(c *gin.Context, err error) {
	var e *Error
	if errors.As(err, &e) {
		c.AbortWithStatusJSON(e.Status, gin.H{"error": e.Err.Error()})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
