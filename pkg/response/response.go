package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, data)
}

// Error writes err as the error envelope. Errors that are not HTTPError
// become a 500.
func Error(c *gin.Context, err error) {
	statusCode, body := parseHttpError(err)
	c.AbortWithStatusJSON(statusCode, body)
}

// ValidationError reports a request that failed binding along with the
// offending fields.
func ValidationError(c *gin.Context, details any) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Resp{
		ErrorCode: http.StatusBadRequest,
		Message:   "Invalid request",
		Errors:    details,
	})
}
