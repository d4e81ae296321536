package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"pricecore/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func (h *Handler) ScanPrices(w http.ResponseWriter, r *http.Request) {
	report, err := h.auditor.ScanAll(r.Context())
	if err != nil {
		msg := "audit scan failed"
		logrus.WithError(err).WithField("handler", "ScanPrices").Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type RepairRequest struct {
	EntityIDs []string        `json:"entity_ids"`
	Factor    decimal.Decimal `json:"factor"`
}

type RepairResponse struct {
	Repaired int                   `json:"repaired"`
	Records  []domain.RepairRecord `json:"records"`
}

func (h *Handler) RepairPrices(w http.ResponseWriter, r *http.Request) {
	var req RepairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.EntityIDs))
	for _, raw := range req.EntityIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid entity id: "+raw)
			return
		}
		ids = append(ids, id)
	}

	records, err := h.auditor.Repair(r.Context(), ids, req.Factor)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRepairRequiresExplicitScope):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrEntityNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			msg := "repair failed"
			logrus.WithError(err).WithField("handler", "RepairPrices").Error(msg)
			writeError(w, http.StatusInternalServerError, msg)
		}
		return
	}

	writeJSON(w, http.StatusOK, RepairResponse{Repaired: len(records), Records: records})
}
