package authorization

import (
	"context"
	"errors"

	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
)

type Service interface {
	Authorize(ctx context.Context, role gatedomain.Role, object string, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)
