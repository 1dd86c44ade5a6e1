package main

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rodrigooliver/interflow-sub001/pkg/csv"
	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

type filters struct {
	startDate   string
	endDate     string
	minAmount   float64
	maxAmount   float64
	description string
}

// toFilterFunc builds the CSV row filter. Unparsable dates are rejected
// earlier by validate.
func (f *filters) toFilterFunc() csv.FilterFunc[*models.InstallmentRecord] {
	start, _ := time.Parse(models.DateLayout, f.startDate)
	end, _ := time.Parse(models.DateLayout, f.endDate)
	minAmount := decimal.NewFromFloat(f.minAmount)
	maxAmount := decimal.NewFromFloat(f.maxAmount)
	needle := strings.ToLower(f.description)

	return func(r *models.InstallmentRecord) bool {
		if f.startDate != "" && r.Date() < start.Format(models.DateLayout) {
			return false
		}
		if f.endDate != "" && r.Date() > end.Format(models.DateLayout) {
			return false
		}
		if f.minAmount != 0 && r.Amount.LessThan(minAmount) {
			return false
		}
		if f.maxAmount != 0 && r.Amount.GreaterThan(maxAmount) {
			return false
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.Description), needle) {
			return false
		}
		return true
	}
}

func (f *filters) validate() error {
	for _, d := range []string{f.startDate, f.endDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return err
		}
	}
	return nil
}
