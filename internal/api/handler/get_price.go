package handler

import (
	"errors"
	"net/http"
	"strings"

	"pricecore/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type GetPriceResponse struct {
	EntityID string `json:"entity_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	// Notice is set when the requested currency could not be served and the
	// canonical price is returned instead.
	Notice string `json:"notice,omitempty"`
}

func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}

	target := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
	if target == "" {
		target = h.converter.CanonicalCurrency()
	}
	if target != h.converter.CanonicalCurrency() {
		if err = h.validator.ValidateCode(target); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	entity, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrEntityNotFound) {
			writeError(w, http.StatusNotFound, "entity not found")
			return
		}
		msg := "couldn't load entity"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetPrice", "entityID": id}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	amount, err := h.converter.Convert(r.Context(), entity.FinalPrice, target)
	if err != nil {
		if errors.Is(err, domain.ErrConversionUnavailable) {
			// Never fabricate a rate: fall back to the canonical currency
			// with an explicit notice.
			writeJSON(w, http.StatusOK, GetPriceResponse{
				EntityID: id.String(),
				Amount:   entity.FinalPrice.String(),
				Currency: h.converter.CanonicalCurrency(),
				Notice:   "requested currency unavailable, showing canonical price",
			})
			return
		}
		msg := "couldn't convert price"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetPrice", "entityID": id, "currency": target}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusOK, GetPriceResponse{
		EntityID: id.String(),
		Amount:   amount.String(),
		Currency: target,
	})
}
