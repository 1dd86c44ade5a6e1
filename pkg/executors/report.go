package executors

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

// Summary aggregates a plan for previews and API responses.
type Summary struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	First time.Time       `json:"first_due_date"`
	Last  time.Time       `json:"last_due_date"`
}

func Summarize(records []models.InstallmentRecord) Summary {
	s := Summary{Count: len(records), Total: decimal.Zero}
	for i, r := range records {
		s.Total = s.Total.Add(r.Amount)
		if i == 0 || r.DueDate.Before(s.First) {
			s.First = r.DueDate
		}
		if i == 0 || r.DueDate.After(s.Last) {
			s.Last = r.DueDate
		}
	}
	return s
}
