package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error shape every endpoint returns
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Error builds an error body
func Error(detail string) ErrorBody {
	return ErrorBody{Detail: detail}
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Detail writes an error body with the given status
func Detail(c *gin.Context, status int, detail string) {
	c.JSON(status, Error(detail))
}

// Abort writes an error body and stops the handler chain
func Abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, Error(detail))
}

func BadRequest(c *gin.Context, detail string) {
	Detail(c, http.StatusBadRequest, detail)
}

func NotFound(c *gin.Context, detail string) {
	Detail(c, http.StatusNotFound, detail)
}

// InternalError never exposes the underlying cause to the client
func InternalError(c *gin.Context, detail string) {
	Detail(c, http.StatusInternalServerError, detail)
}

func ServiceUnavailable(c *gin.Context, detail string) {
	Detail(c, http.StatusServiceUnavailable, detail)
}
