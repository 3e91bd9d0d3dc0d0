package web

import (
	"github.com/gin-gonic/gin"
	"github.com/rabhiso/reader-api/apperr"
)

// abortWithError renders the structured error body and stops the chain.
// Every failed request answers with {statusCode, error, details}.
func abortWithError(c *gin.Context, e *apperr.Error) {
	c.AbortWithStatusJSON(e.StatusCode, e)
}
