package controllers

import (
	"net/http"

	"github.com/erijustudio/storefront-backend/api/middleware"
	"github.com/erijustudio/storefront-backend/api/responses"
	"github.com/erijustudio/storefront-backend/api/validators"
	"github.com/erijustudio/storefront-backend/internal/adminauth"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
	"github.com/erijustudio/storefront-backend/pkg/logger"
)

type adminLoginRequest struct {
	Secret string `json:"secret" validate:"required"`
}

// AdminLogin exchanges the operator shared secret for a console session.
func AdminLogin(svc adminauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin auth service unavailable"))
			return
		}

		var payload adminLoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), payload.Secret)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}

// AdminLogout revokes the console session behind the caller's token.
func AdminLogout(svc adminauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin auth service unavailable"))
			return
		}

		accessID := middleware.AccessIDFromContext(r.Context())
		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
