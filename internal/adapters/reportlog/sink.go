package reportlog

import (
	"context"

	"pricecore/internal/domain"

	"github.com/sirupsen/logrus"
)

// Sink hands audit output off as structured log records. External systems
// consuming the log stream render and store them; the engine does not.
type Sink struct{}

func New() *Sink { return &Sink{} }

func (s *Sink) SaveReport(ctx context.Context, report *domain.AuditReport) error {
	entry := logrus.WithFields(logrus.Fields{
		"reportID": report.ID,
		"scanned":  report.Scanned,
		"flagged":  report.Flagged,
	})
	entry.Info("Audit report")
	for _, f := range report.Findings {
		logrus.WithFields(logrus.Fields{
			"reportID":   report.ID,
			"entityID":   f.EntityID,
			"rootID":     f.RootID,
			"categoryID": f.CategoryID,
			"finalPrice": f.FinalPrice.String(),
			"class":      f.Class,
			"reasons":    f.Reasons,
		}).Warn("Audit finding")
	}
	return nil
}

func (s *Sink) SaveRepairs(ctx context.Context, records []domain.RepairRecord) error {
	for _, r := range records {
		logrus.WithFields(logrus.Fields{
			"entityID":       r.EntityID,
			"rootID":         r.RootID,
			"factor":         r.Factor.String(),
			"beforeFinal":    r.Before.FinalPrice.String(),
			"afterFinal":     r.After.FinalPrice.String(),
			"beforeMerchant": r.Before.MerchantPrice.String(),
			"afterMerchant":  r.After.MerchantPrice.String(),
		}).Info("Repair record")
	}
	return nil
}
