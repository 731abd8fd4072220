package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the envelope every endpoint answers with. Data and Error can
// coexist: a rejected validation carries the full result in Data next to
// the error code.
type Response struct {
	Data       interface{} `json:"data"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Metadata   Metadata    `json:"metadata"`
}

// ErrorBody carries a typed code, its message and optional per-field detail.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Pagination describes the page a list endpoint returned.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Metadata includes request tracing and timing.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func send(c *gin.Context, status int, resp Response) {
	resp.Metadata = buildMetadata(c)
	c.JSON(status, resp)
}

// Success sends data with the given status code.
func Success(c *gin.Context, statusCode int, data interface{}) {
	send(c, statusCode, Response{Data: data})
}

// SuccessWithPagination sends one page of a list plus its page descriptor.
func SuccessWithPagination(c *gin.Context, statusCode int, data interface{}, pagination *Pagination) {
	send(c, statusCode, Response{Data: data, Pagination: pagination})
}

// Fail sends an error code with no field-level details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	send(c, statusCode, Response{Error: &ErrorBody{Code: code, Message: GetMessage(code)}})
}

// FailWithFields sends an error code with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	send(c, statusCode, Response{Error: &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields}})
}

// FailWithData sends an error response that still carries a data payload.
// Used for rejected validations where the caller needs the full
// {isValid, errors, warnings} result alongside the error code.
func FailWithData(c *gin.Context, statusCode int, code ErrCode, data interface{}) {
	send(c, statusCode, Response{Data: data, Error: &ErrorBody{Code: code, Message: GetMessage(code)}})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, Response{
		Error:    &ErrorBody{Code: code, Message: GetMessage(code)},
		Metadata: buildMetadata(c),
	})
}

func buildMetadata(c *gin.Context) Metadata {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		// Middleware not applied, still give the client something to quote.
		id = uuid.NewString()
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
