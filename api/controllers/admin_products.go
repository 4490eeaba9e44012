package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/erijustudio/storefront-backend/api/responses"
	"github.com/erijustudio/storefront-backend/api/validators"
	productsvc "github.com/erijustudio/storefront-backend/internal/products"
	"github.com/erijustudio/storefront-backend/pkg/enums"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
	"github.com/erijustudio/storefront-backend/pkg/logger"
)

// AdminProductsList lists every product regardless of status.
func AdminProductsList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		items, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"products": items})
	}
}

type createProductRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   *string `json:"description"`
	Price         int     `json:"price" validate:"min=0"`
	OriginalPrice *int    `json:"original_price"`
	Image         string  `json:"image"`
	SortOrder     int     `json:"sort_order"`
}

// AdminProductCreate adds a product to the catalog.
func AdminProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), productsvc.CreateInput{
			Name:          payload.Name,
			Description:   payload.Description,
			Price:         payload.Price,
			OriginalPrice: payload.OriginalPrice,
			Image:         payload.Image,
			SortOrder:     payload.SortOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

type updateProductRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=200"`
	Description   *string `json:"description"`
	Price         *int    `json:"price" validate:"omitempty,min=0"`
	OriginalPrice *int    `json:"original_price"`
	ClearOriginal bool    `json:"clear_original_price"`
	Image         *string `json:"image"`
	Status        *string `json:"status"`
	SortOrder     *int    `json:"sort_order"`
}

// AdminProductUpdate applies a partial edit. Absent fields keep their values.
func AdminProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.UpdateInput{
			Name:          payload.Name,
			Description:   payload.Description,
			Price:         payload.Price,
			OriginalPrice: payload.OriginalPrice,
			ClearOriginal: payload.ClearOriginal,
			Image:         payload.Image,
			SortOrder:     payload.SortOrder,
		}
		if payload.Status != nil {
			status, err := enums.ParseProductStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown product status").WithDetails(map[string]any{"status": *payload.Status}))
				return
			}
			input.Status = &status
		}

		item, err := svc.Update(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// AdminProductDelete hard-deletes a product. Historical order snapshots keep
// their copied line items.
func AdminProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		if err := svc.Delete(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
