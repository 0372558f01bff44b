package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/chatstream/errors"
)

// RespondWithError writes err as a {"detail": ...} body. An *AppError
// supplies the status; anything else is a 500.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToDetail())
}

// RespondOK sends a 200 response with data as the body.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// RespondMessage sends a 200 {"message": ...} body.
func RespondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}
