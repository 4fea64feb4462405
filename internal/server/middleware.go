package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	userdomain "github.com/smallbiznis/grantgate/internal/user/domain"
	"go.uber.org/zap"
)

const (
	HeaderUserID      = "X-User-ID"
	contextActorIDKey = "actor_id"
)

// authorizeAction resolves the acting user from the X-User-ID header and checks the
// role against the casbin policy. Authentication itself happens upstream.
func (s *Server) authorizeAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		actorID, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || actorID <= 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		actor, err := s.usersvc.GetEntitlement(ctx, actorID)
		if err != nil {
			if errors.Is(err, userdomain.ErrNotFound) {
				AbortWithError(c, ErrForbidden)
				return
			}
			AbortWithError(c, err)
			return
		}

		if err := s.authzSvc.Authorize(ctx, actor.Role, object, action); err != nil {
			s.log.Warn("admin action rejected",
				zap.Int64("actor_id", actorID),
				zap.String("object", object),
				zap.String("action", action),
			)
			AbortWithError(c, err)
			return
		}

		c.Set(contextActorIDKey, actorID)
		c.Next()
	}
}

func parseUserIDParam(c *gin.Context) (int64, error) {
	raw := strings.TrimSpace(c.Param("user_id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, newValidationError("user_id", "invalid_user_id", "user_id must be a positive integer")
	}
	return id, nil
}

func featureParam(c *gin.Context) string {
	feature := strings.TrimSpace(c.Param("feature"))
	if feature != "" {
		c.Set("feature_name", feature)
	}
	return feature
}
