package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	psdomain "github.com/smallbiznis/paysignal/internal/paymentsource/domain"
)

func (s *Server) ListSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.sources.ListSources()})
}

func (s *Server) GetSettings(c *gin.Context) {
	group := groupFromContext(c)
	if group == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	settings, err := s.sources.GetSettings(c.Request.Context(), group.GroupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

type setSourceRequest struct {
	Source string `json:"source"`
}

func (s *Server) SetSource(c *gin.Context) {
	group := groupFromContext(c)
	if group == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req setSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ok, err := s.sources.SetActiveSource(c.Request.Context(), group.GroupID, req.Source)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ok {
		AbortWithError(c, newValidationError("source", "unknown_source", "unknown payment source or custom source not configured"))
		return
	}
	s.respondSettings(c, group.GroupID)
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) SetEnabled(c *gin.Context) {
	group := groupFromContext(c)
	if group == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req setEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		AbortWithError(c, newValidationError("enabled", "required", "enabled is required"))
		return
	}

	if err := s.sources.SetEnabled(c.Request.Context(), group.GroupID, *req.Enabled); err != nil {
		AbortWithError(c, err)
		return
	}
	s.respondSettings(c, group.GroupID)
}

func (s *Server) SetCustomSource(c *gin.Context) {
	group := groupFromContext(c)
	if group == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req psdomain.CustomSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.sources.SetCustomSource(c.Request.Context(), group.GroupID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !result.Valid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"data": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) respondSettings(c *gin.Context, groupID string) {
	settings, err := s.sources.GetSettings(c.Request.Context(), groupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}
