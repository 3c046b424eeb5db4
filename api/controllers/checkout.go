package controllers

import (
	"net/http"

	"github.com/angelmondragon/hauler-backend/api/responses"
	checkoutsvc "github.com/angelmondragon/hauler-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/hauler-backend/pkg/errors"
	"github.com/angelmondragon/hauler-backend/pkg/logger"
)

// Checkout splits the caller's cart into supplier orders.
// Full success is 201, a partial split is 207 with the per-supplier outcome.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		caller, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), checkoutsvc.Buyer{
			ID:          caller.UserID,
			DisplayName: caller.DisplayName,
			SessionID:   caller.SessionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Partial() {
			status = http.StatusMultiStatus
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
