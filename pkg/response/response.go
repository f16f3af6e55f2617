package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/pkg/logger"
)

// CodeProjectLocked marks a write refused because the task's project is
// Completed. Every other error carries its HTTP status as the code.
const CodeProjectLocked = 4001

// Body is what every failed request returns.
type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AppError is an error the client is allowed to see. Services return it and
// handlers pass it straight to Error.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func newError(status int, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, Message: msg}
}

func NewBadRequest(msg string) *AppError   { return newError(http.StatusBadRequest, msg) }
func NewUnauthorized(msg string) *AppError { return newError(http.StatusUnauthorized, msg) }
func NewForbidden(msg string) *AppError    { return newError(http.StatusForbidden, msg) }
func NewNotFound(msg string) *AppError     { return newError(http.StatusNotFound, msg) }
func NewConflict(msg string) *AppError     { return newError(http.StatusConflict, msg) }

func NewTooManyRequests(msg string) *AppError {
	return newError(http.StatusTooManyRequests, msg)
}

// NewProjectLocked is a 400 rather than a 409 so the UI surfaces the guard
// message the same way it shows validation errors.
func NewProjectLocked(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeProjectLocked, Message: msg}
}

// Success writes data as the whole 200 body.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created writes data as the whole 201 body.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message writes {"message": msg} with 200.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Error renders err as a Body. Anything that is not an *AppError is logged
// with the request ID and hidden behind a generic 500.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("unhandled error")
		appErr = newError(http.StatusInternalServerError, "internal server error")
	}
	c.JSON(appErr.HTTPStatus, Body{Code: appErr.Code, Message: appErr.Message})
}

// Abort is Error for middleware: it also stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

func BadRequest(c *gin.Context, msg string)   { Error(c, NewBadRequest(msg)) }
func Unauthorized(c *gin.Context, msg string) { Error(c, NewUnauthorized(msg)) }
func Forbidden(c *gin.Context, msg string)    { Error(c, NewForbidden(msg)) }
