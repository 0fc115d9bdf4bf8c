package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lambda-http-adapter/pkg/lambda"
)

const maxStreamChunks = 1000

// EchoHandler serves the demo endpoints used to exercise the adapter
type EchoHandler struct{}

// NewEchoHandler creates a new echo handler
func NewEchoHandler() *EchoHandler {
	return &EchoHandler{}
}

// Echo writes the request body back unchanged, with the request's content type
func (h *EchoHandler) Echo(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	contentType := c.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("X-Echo-Method", c.Request.Method)
	c.Data(http.StatusOK, contentType, body)
}

// Stream writes ?chunks=N lines, flushing after each one
func (h *EchoHandler) Stream(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("chunks", "3"))
	if err != nil || n < 0 || n > maxStreamChunks {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid chunks parameter",
			Message: fmt.Sprintf("chunks must be between 0 and %d", maxStreamChunks),
		})
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(c.Writer, "chunk %d\n", i); err != nil {
			_ = c.Error(err)
			return
		}
		c.Writer.Flush()
	}
}

// Event describes the Lambda envelope the request arrived in
func (h *EchoHandler) Event(c *gin.Context) {
	env, ok := lambda.EventFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "No Lambda event",
			Message: "request was not delivered by the Lambda runtime",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source": env.Source,
		"method": env.Request.Method,
		"path":   env.Request.URL.Path,
		"query":  env.Request.URL.RawQuery,
	})
}
