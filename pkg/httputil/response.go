package httputil

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Meta    *Pagination  `json:"meta,omitempty"`
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Count    int `json:"count"`
}

func Success(data interface{}) *Response {
	return &Response{Status: "success", Data: data}
}

func Failure(message string) *Response {
	return &Response{Status: "error", Message: message}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Success(data))
}

// RespondWithMessage sends a success response carrying only a message.
func RespondWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, &Response{Status: "success", Message: message})
}

// RespondWithList sends a page of results.
func RespondWithList(c *gin.Context, data interface{}, page, pageSize, count int) {
	if page < 1 {
		page = 1
	}
	c.JSON(http.StatusOK, &Response{
		Status: "success",
		Data:   data,
		Meta:   &Pagination{Page: page, PageSize: pageSize, Count: count},
	})
}

// RespondWithError maps err to a status code. Errors that are not
// AppErrors, and internal AppErrors, are hidden from the client. The error
// is attached to the context for the logging middleware.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	if stderrors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, Failure("request timed out"))
		return
	}

	appErr, ok := errors.As(err)
	if !ok || appErr.Code == errors.ErrInternal {
		c.JSON(http.StatusInternalServerError, Failure("internal server error"))
		return
	}

	c.JSON(appErr.HTTPStatus(), Failure(appErr.Message))
}

// RespondWithBindError reports a request body or query that failed binding.
func RespondWithBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, &Response{
			Status:  "error",
			Message: "validation failed",
			Errors:  fields,
		})
		return
	}

	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		c.JSON(http.StatusBadRequest, Failure("malformed JSON body"))
		return
	}

	c.JSON(http.StatusBadRequest, Failure(err.Error()))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "e164":
		return "enter a phone number in E.164 format"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "timeslot":
		return "not a valid time slot"
	case "notblank":
		return "this field may not be blank"
	default:
		return fe.Error()
	}
}
