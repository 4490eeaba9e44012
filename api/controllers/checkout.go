package controllers

import (
	"net/http"

	"github.com/erijustudio/storefront-backend/api/responses"
	"github.com/erijustudio/storefront-backend/api/validators"
	checkoutsvc "github.com/erijustudio/storefront-backend/internal/checkout"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
	"github.com/erijustudio/storefront-backend/pkg/logger"
)

type checkoutRequest struct {
	CustomerName  string `json:"customer_name" validate:"required,max=120"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone string `json:"customer_phone" validate:"required"`
	StoreName     string `json:"store_name"`
	StoreAddress  string `json:"store_address" validate:"required"`
}

// Checkout turns the caller's cart into a pending order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := shopperID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), userID, checkoutsvc.Input{
			CustomerName:  payload.CustomerName,
			CustomerEmail: payload.CustomerEmail,
			CustomerPhone: payload.CustomerPhone,
			StoreName:     payload.StoreName,
			StoreAddress:  payload.StoreAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
