// Package plan loads YAML plan files: a batch of transaction templates for
// one organization, each with the number of installments to split it into.
package plan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rodrigooliver/interflow-sub001/pkg/installment"
	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

var ErrInvalidPlan = errors.New("invalid plan")

type Plan struct {
	Organization string
	Entries      []Entry
}

// Entry is one template of the plan and its installment count.
type Entry struct {
	Template     models.TransactionTemplate
	Installments int
}

func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a plan file body.
func Parse(data []byte) (*Plan, error) {
	var m models.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	org := strings.TrimSpace(m.Organization)
	if org == "" {
		return nil, fmt.Errorf("%w: missing organization", ErrInvalidPlan)
	}
	if len(m.Transactions) == 0 {
		return nil, fmt.Errorf("%w: plan has no transactions", ErrInvalidPlan)
	}

	p := &Plan{Organization: org, Entries: make([]Entry, 0, len(m.Transactions))}
	for i, tx := range m.Transactions {
		entry, err := toEntry(org, tx)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %v", ErrInvalidPlan, i+1, err)
		}
		p.Entries = append(p.Entries, entry)
	}
	return p, nil
}

func toEntry(org string, tx models.PlanEntry) (Entry, error) {
	if strings.TrimSpace(tx.Description) == "" {
		return Entry{}, fmt.Errorf("missing description")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(tx.Amount))
	if err != nil {
		return Entry{}, fmt.Errorf("bad amount %q", tx.Amount)
	}

	var due time.Time
	if s := strings.TrimSpace(tx.DueDate); s != "" {
		if due, err = time.Parse(models.DateLayout, s); err != nil {
			return Entry{}, fmt.Errorf("bad due_date %q, want YYYY-MM-DD", tx.DueDate)
		}
	}

	n := tx.Installments
	switch {
	case n == 0:
		n = 1
	case n < 0:
		return Entry{}, fmt.Errorf("installments must be positive, got %d", n)
	}

	return Entry{
		Template: models.TransactionTemplate{
			OrganizationID: org,
			Description:    tx.Description,
			Amount:         amount,
			DueDate:        due,
			Category:       tx.Category,
			Cashier:        tx.Cashier,
			PaymentMethod:  tx.PaymentMethod,
			Account:        tx.Account,
			Extra:          tx.Extra,
		},
		Installments: n,
	}, nil
}

// Records expands every entry with planner, in file order.
func (p *Plan) Records(planner *installment.Planner) ([][]models.InstallmentRecord, error) {
	out := make([][]models.InstallmentRecord, 0, len(p.Entries))
	for i, e := range p.Entries {
		recs, err := planner.Plan(e.Template, e.Installments)
		if err != nil {
			return nil, fmt.Errorf("transaction %d (%s): %w", i+1, e.Template.Description, err)
		}
		out = append(out, recs)
	}
	return out, nil
}

func (p *Plan) Print(w io.Writer) {
	fmt.Fprintf(w, "Organization: %s\n", p.Organization)
	for i, e := range p.Entries {
		fmt.Fprintf(w, "[%d] %s amount=%s installments=%d method=%s\n",
			i+1, e.Template.Description, e.Template.Amount.StringFixed(2), e.Installments, e.Template.PaymentMethod)
	}
}
