package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	userdomain "github.com/smallbiznis/grantgate/internal/user/domain"
)

type upsertUserRequest struct {
	Email        *string `json:"email"`
	Role         *string `json:"role"`
	IsSubscribed *bool   `json:"is_subscribed"`
}

type purchaseRequest struct {
	FeatureName string         `json:"feature_name"`
	Metadata    map[string]any `json:"metadata"`
}

func (s *Server) UpsertUser(c *gin.Context) {
	userID, err := parseUserIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req upsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.usersvc.Upsert(c.Request.Context(), userdomain.UpsertRequest{
		UserID:       userID,
		Email:        req.Email,
		Role:         req.Role,
		IsSubscribed: req.IsSubscribed,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) RecordPurchase(c *gin.Context) {
	userID, err := parseUserIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	c.Set("feature_name", req.FeatureName)

	resp, err := s.usersvc.RecordPurchase(c.Request.Context(), userdomain.PurchaseRequest{
		UserID:      userID,
		FeatureName: req.FeatureName,
		Metadata:    req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
