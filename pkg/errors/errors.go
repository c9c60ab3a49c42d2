package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindExternal     Kind = "external"
	KindInternal     Kind = "internal"
)

// Error represents an application error
type Error struct {
	Code    int            `json:"code"`
	Kind    Kind           `json:"kind"`
	Reason  string         `json:"reason,omitempty"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Is matches errors sharing a non-empty Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Reason == "" {
		return false
	}
	return t.Reason == e.Reason
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// With returns a copy of e carrying an extra detail field.
func (e *Error) With(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// Public reports whether the message may be shown to the client as is.
func (e *Error) Public() bool {
	return e.Kind != KindInternal && e.Kind != KindExternal
}

// New creates a new Error
func New(code int, kind Kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func Validation(message string) *Error {
	return New(http.StatusBadRequest, KindValidation, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, KindNotFound, message, nil)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, KindConflict, message, nil)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, KindUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, KindForbidden, message, nil)
}

func External(message string, err error) *Error {
	return New(http.StatusBadGateway, KindExternal, message, err)
}

func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, KindInternal, message, err)
}

// From extracts an *Error from err, wrapping anything else as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}

// Body is the JSON error envelope written to clients.
func Body(e *Error) gin.H {
	if !e.Public() {
		msg := "Internal server error"
		if e.Kind == KindExternal {
			msg = "Upstream service error"
		}
		return gin.H{"error": msg, "kind": e.Kind}
	}
	body := gin.H{"error": e.Message, "kind": e.Kind}
	if e.Reason != "" {
		body["reason"] = e.Reason
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return body
}

// Respond writes err to the gin response and aborts the chain.
func Respond(c *gin.Context, err error) {
	appErr := From(err)
	c.AbortWithStatusJSON(appErr.Code, Body(appErr))
}

// Middleware renders the last error attached with c.Error.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := From(c.Errors.Last().Err)
			c.JSON(appErr.Code, Body(appErr))
		}
	}
}

func reason(e *Error, r string) *Error {
	e.Reason = r
	return e
}

// Domain errors shared across services.
var (
	ErrEmptyOrder        = reason(Validation("Order must contain at least one item"), "EmptyOrder")
	ErrDishNotFound      = reason(NotFound("Dish does not exist"), "DishNotFound")
	ErrDishUnavailable   = reason(Validation("Dish is not available"), "DishUnavailable")
	ErrOutOfStock        = reason(Conflict("Dish is out of stock"), "OutOfStock")
	ErrInsufficientStock = reason(Conflict("Insufficient stock"), "InsufficientStock")
	ErrInvalidStatus     = reason(Validation("Invalid status"), "InvalidStatus")
	ErrAuthRequired      = reason(Unauthorized("Authentication required"), "AuthRequired")
	ErrAdminRequired     = reason(Forbidden("Admin privileges required"), "AdminRequired")
	ErrInvalidToken      = reason(Unauthorized("Invalid token"), "InvalidToken")
	ErrInvalidSignature  = reason(Validation("Invalid webhook signature"), "InvalidSignature")
	ErrPaymentIncomplete = reason(Validation("Payment not completed"), "PaymentIncomplete")
	ErrReferencedByOrder = reason(Conflict("Referenced by existing orders"), "ReferencedByOrders")
)
