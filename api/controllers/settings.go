package controllers

import (
	"net/http"

	"github.com/angelmondragon/warung-pos/api/responses"
	"github.com/angelmondragon/warung-pos/api/validators"
	"github.com/angelmondragon/warung-pos/internal/settings"
	"github.com/angelmondragon/warung-pos/pkg/logger"
)

func StoreSettingsGet(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

type storeSettingsRequest struct {
	OpeningHours   string   `json:"opening_hours" validate:"max=60"`
	ClosedDay      string   `json:"closed_day" validate:"max=30"`
	WhatsAppNumber string   `json:"whatsapp_number" validate:"max=30"`
	Address        string   `json:"address" validate:"max=255"`
	Promo          []string `json:"promo" validate:"max=10,dive,max=160"`
}

func StoreSettingsUpdate(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload storeSettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		info, err := svc.Upsert(r.Context(), settings.StoreInfo{
			OpeningHours:   payload.OpeningHours,
			ClosedDay:      payload.ClosedDay,
			WhatsAppNumber: payload.WhatsAppNumber,
			Address:        payload.Address,
			Promo:          payload.Promo,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}
