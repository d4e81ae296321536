package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pricecore/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type GetRateResponse struct {
	Base   string    `json:"base"`
	Target string    `json:"target"`
	Rate   string    `json:"rate"`
	AsOf   time.Time `json:"as_of"`
	Source string    `json:"source"`
	Stale  bool      `json:"stale"`
}

func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	base := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "base")))
	target := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "target")))

	if err := h.validator.ValidateCode(target); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resolved, err := h.cache.GetRate(r.Context(), base, target)
	if err != nil {
		if errors.Is(err, domain.ErrRateUnavailable) {
			writeError(w, http.StatusNotFound, "no usable exchange rate")
			return
		}
		msg := "couldn't resolve rate this time"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetRate", "base": base, "target": target}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusOK, GetRateResponse{
		Base:   base,
		Target: target,
		Rate:   resolved.Rate.String(),
		AsOf:   resolved.AsOf,
		Source: string(resolved.Source),
		Stale:  resolved.Stale,
	})
}
