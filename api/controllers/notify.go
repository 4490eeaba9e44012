package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/erijustudio/storefront-backend/api/validators"
	notifysvc "github.com/erijustudio/storefront-backend/internal/notify"
	"github.com/erijustudio/storefront-backend/pkg/logger"
	"github.com/erijustudio/storefront-backend/pkg/types"
)

// notifyRelayRequest keeps the legacy relay body shape.
type notifyRelayRequest struct {
	OrderID uuid.UUID        `json:"order_id"`
	Name    string           `json:"name" validate:"required"`
	Phone   string           `json:"phone" validate:"required"`
	Address string           `json:"address"`
	Total   int              `json:"total" validate:"min=0"`
	Items   types.OrderItems `json:"items" validate:"required,min=1"`
}

// NotifyRelay forwards an order summary to the chat webhook. Responses keep
// the legacy {success} envelope rather than the standard one.
func NotifyRelay(dispatcher notifysvc.Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dispatcher == nil {
			writeRelayError(w, "notification dispatcher not configured")
			return
		}

		var payload notifyRelayRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			ctx := logg.WithField(r.Context(), "error", err.Error())
			logg.Warn(ctx, "notify relay rejected payload")
			writeRelayError(w, "invalid payload")
			return
		}

		notification := notifysvc.OrderNotification{
			OrderID:       payload.OrderID,
			CustomerName:  payload.Name,
			CustomerPhone: payload.Phone,
			PickupAddress: payload.Address,
			Items:         payload.Items,
			Total:         payload.Total,
		}
		if err := dispatcher.Send(r.Context(), notification); err != nil {
			ctx := logg.WithOrderID(r.Context(), payload.OrderID.String())
			logg.Error(ctx, "notify relay failed", err)
			writeRelayError(w, "relay failed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}
}

func writeRelayError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
