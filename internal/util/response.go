package util

import (
	"exam_trainer_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope every API reply uses: success plus any payload
// fields inline, or an error message.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func Success(c *gin.Context, fields gin.H) {
	respond(c, http.StatusOK, fields)
}

func Created(c *gin.Context, fields gin.H) {
	respond(c, http.StatusCreated, fields)
}

func respond(c *gin.Context, code int, fields gin.H) {
	body := gin.H{}
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	c.JSON(code, body)
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Success: false,
		Error:   message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}
