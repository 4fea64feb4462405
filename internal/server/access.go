package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
)

// EvaluateAccess gates one invocation of a feature. Allowed invocations are
// charged unless dry_run=true, which only reports the decision.
func (s *Server) EvaluateAccess(c *gin.Context) {
	userID, err := parseUserIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	feature := featureParam(c)

	dryRun, err := parseOptionalBool(c.Query("dry_run"))
	if err != nil {
		AbortWithError(c, newValidationError("dry_run", "invalid_dry_run", "dry_run must be a boolean"))
		return
	}

	ctx := c.Request.Context()
	var decision gatedomain.Decision
	if dryRun != nil && *dryRun {
		decision, err = s.guard.Check(ctx, userID, feature)
		if err == nil && !decision.Allowed {
			err = &gatedomain.BlockedError{Decision: decision}
		}
	} else {
		decision, err = s.guard.Run(ctx, userID, feature, nil)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
