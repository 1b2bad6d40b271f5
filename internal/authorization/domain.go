package authorization

import (
	"context"
	"errors"

	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
)

type Service interface {
	Authorize(ctx context.Context, scope orgcontext.Scope, object string, action string) error
}

var (
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
)
