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

type RefreshRateResponse struct {
	Base      string    `json:"base"`
	Provider  string    `json:"provider"`
	Rates     int       `json:"rates"`
	FetchedAt time.Time `json:"fetched_at"`
}

// RefreshRate triggers a fetch for one base currency. It shares the
// single-flight with the scheduled refresh, so hammering this endpoint still
// produces at most one in-flight provider call per base.
func (h *Handler) RefreshRate(w http.ResponseWriter, r *http.Request) {
	base := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "base")))

	snap, err := h.cache.Refresh(r.Context(), base)
	if err != nil {
		if errors.Is(err, domain.ErrProviderFetchFailed) {
			writeError(w, http.StatusBadGateway, "rate provider unavailable, previous snapshot retained")
			return
		}
		msg := "refresh failed"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "RefreshRate", "base": base}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusOK, RefreshRateResponse{
		Base:      snap.BaseCurrency,
		Provider:  snap.Provider,
		Rates:     len(snap.Rates),
		FetchedAt: snap.FetchedAt,
	})
}
