package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/hauler-backend/api/middleware"
	"github.com/angelmondragon/hauler-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hauler-backend/pkg/errors"
)

// identity is the authenticated caller as seeded by middleware.Auth.
type identity struct {
	UserID      uuid.UUID
	Role        enums.UserRole
	DisplayName string
	SessionID   string
}

func identityFromRequest(r *http.Request) (identity, error) {
	ctx := r.Context()
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return identity{}, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown role")
	}
	return identity{
		UserID:      userID,
		Role:        role,
		DisplayName: middleware.DisplayNameFromContext(ctx),
		SessionID:   middleware.SessionIDFromContext(ctx),
	}, nil
}
