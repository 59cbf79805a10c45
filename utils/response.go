package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// MessageResponse is the body of every error and of plain acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
}

// Respond writes a JSON body with the given status code.
func Respond(ctx *gin.Context, status int, body interface{}) {
	ctx.JSON(status, body)
}

// Message writes a {"message": ...} body.
func Message(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, MessageResponse{Message: message})
}

// Error writes a {"message": ...} body and stops the handler chain.
func Error(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, MessageResponse{Message: message})
}

// ServerError logs the cause once and answers with a generic 500.
func ServerError(ctx *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Error(msg,
		zap.Error(err),
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
		zap.String("request_id", ctx.Writer.Header().Get(RequestIDHeader)),
	)
	Error(ctx, http.StatusInternalServerError, "Internal server error!")
}
