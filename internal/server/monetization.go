package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	"go.uber.org/zap"
)

type updateMonetizationRequest struct {
	MonetizationModel string `json:"monetizationModel"`
}

func (s *Server) GetMonetizationConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.monetization.Get())
}

func (s *Server) UpdateMonetizationConfig(c *gin.Context) {
	var req updateMonetizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	model, err := monetizationdomain.ParseModel(req.MonetizationModel)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.monetization.SetModel(c.Request.Context(), model); err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("monetization model changed",
		zap.Int64("actor_id", c.GetInt64(contextActorIDKey)),
		zap.String("model", string(model)),
	)
	c.JSON(http.StatusOK, s.monetization.Get())
}
