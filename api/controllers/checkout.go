package controllers

import (
	"net/http"

	"github.com/angelmondragon/warung-pos/api/middleware"
	"github.com/angelmondragon/warung-pos/api/responses"
	"github.com/angelmondragon/warung-pos/api/validators"
	"github.com/angelmondragon/warung-pos/internal/transactions"
	"github.com/angelmondragon/warung-pos/pkg/logger"
)

type checkoutRequest struct {
	DeliveryFee     any    `json:"delivery_fee,omitempty"`
	CashTendered    any    `json:"cash_tendered,omitempty"`
	CustomerName    string `json:"customer_name,omitempty" validate:"omitempty,max=120"`
	CustomerAddress string `json:"customer_address,omitempty" validate:"omitempty,max=255"`
	Print           *bool  `json:"print,omitempty"`
}

// Checkout records the session cart as a sale. Print defaults to autoPrint.
func Checkout(svc transactions.Service, autoPrint bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shouldPrint := autoPrint
		if payload.Print != nil {
			shouldPrint = *payload.Print
		}

		result, err := svc.Checkout(r.Context(), transactions.CheckoutInput{
			SessionID:       sessionID(r),
			UserID:          middleware.UserIDFromContext(r.Context()),
			DeliveryFee:     payload.DeliveryFee,
			CashTendered:    payload.CashTendered,
			CustomerName:    validators.SanitizeString(payload.CustomerName, 120),
			CustomerAddress: validators.SanitizeString(payload.CustomerAddress, 255),
			Print:           shouldPrint,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var warnings []string
		if result.Print != nil && result.Print.Document != nil {
			warnings = result.Print.Document.Warnings
		}
		responses.WriteSuccessWithWarnings(w, http.StatusCreated, result, warnings)
	}
}
