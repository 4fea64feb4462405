package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
)

func (s *Server) GetUsage(c *gin.Context) {
	userID, err := parseUserIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	usage, err := s.usagesvc.GetUsage(c.Request.Context(), userID, featureParam(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, usage)
}

func (s *Server) RecordUsage(c *gin.Context) {
	userID, err := parseUserIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	usage, err := s.usagesvc.RecordUsage(c.Request.Context(), userID, featureParam(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, usage)
}

type listUsageResponse struct {
	UserID   int64                      `json:"user_id"`
	Features []usagedomain.FeatureUsage `json:"features"`
}

func (s *Server) ListUsage(c *gin.Context) {
	userID, err := parseUserIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.usagesvc.ListUsage(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if items == nil {
		items = []usagedomain.FeatureUsage{}
	}

	c.JSON(http.StatusOK, listUsageResponse{UserID: userID, Features: items})
}
