package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vibe-transcode-service/pkg/errno"
	"vibe-transcode-service/pkg/logger"
)

// Success writes payload as a 200 JSON body.
func Success(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Failed maps err to its errno HTTP status and writes {"error": message}.
// Unrecognised errors become a 500 with a generic message; the cause is logged.
func Failed(c *gin.Context, err error) {
	e := errno.Decode(err)
	if e == errno.OK {
		e = errno.ErrInternalServer
	}
	status := e.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logger.Errorf("request failed method=%s path=%s request_id=%s error=%v",
			c.Request.Method, c.FullPath(), c.GetString("request_id"), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": e.Message})
}
