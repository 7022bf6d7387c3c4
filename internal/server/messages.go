package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/paysignal/internal/ingest"
)

type processMessageRequest struct {
	Message string `json:"message"`
}

func (s *Server) ProcessMessage(c *gin.Context) {
	group := groupFromContext(c)
	if group == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req processMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	res, err := s.pipeline.Process(c.Request.Context(), req.Message, group.GroupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if res.Status == ingest.StatusRateLimited {
		setRetryAfter(c, res.RetryAfter.Seconds())
	}
	c.JSON(statusForResult(res.Status), gin.H{"data": res})
}

func statusForResult(status ingest.Status) int {
	switch status {
	case ingest.StatusStored:
		return http.StatusCreated
	case ingest.StatusRejected:
		return http.StatusUnprocessableEntity
	case ingest.StatusRateLimited:
		return http.StatusTooManyRequests
	case ingest.StatusUnauthorized:
		return http.StatusPaymentRequired
	default:
		return http.StatusOK
	}
}

func (s *Server) TestPatterns(c *gin.Context) {
	var req ingest.TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if client := clientFromContext(c); client != nil {
		req.RateKey = client.ID
	}

	c.JSON(http.StatusOK, gin.H{"data": s.pipeline.TestPatterns(c.Request.Context(), req)})
}
