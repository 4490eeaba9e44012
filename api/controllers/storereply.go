package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/erijustudio/storefront-backend/api/responses"
	"github.com/erijustudio/storefront-backend/pkg/config"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
	"github.com/erijustudio/storefront-backend/pkg/logger"
)

// StoreReply receives the carrier's store-selection callback and bounces the
// shopper back to the cart with the chosen store in the query string.
func StoreReply(cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form payload"))
			return
		}

		storeName := strings.TrimSpace(r.PostFormValue("CVSStoreName"))
		storeID := strings.TrimSpace(r.PostFormValue("CVSStoreID"))
		if storeName == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing store name"))
			return
		}

		query := url.Values{}
		query.Set("storeName", storeName)
		if storeID != "" {
			query.Set("storeId", storeID)
		}

		target := strings.TrimRight(cfg.App.BaseURL, "/") + "/cart?" + query.Encode()
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}
