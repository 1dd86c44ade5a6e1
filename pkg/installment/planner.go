// Package installment turns a single transaction template into a schedule of
// monthly installments. It performs no I/O: ids are allocated by whoever
// persists the plan (see the executors package).
package installment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

// ErrInvalidArgument is returned for counts below one and non-positive amounts.
var ErrInvalidArgument = errors.New("invalid argument")

// Planner holds the policy knobs of plan generation. The zero value allows
// installments for every payment method and copies the template amount into
// each installment.
type Planner struct {
	// AllowsInstallments decides whether a payment method may be split. Nil
	// means every method may.
	AllowsInstallments func(paymentMethod string) bool
	// SplitAmount treats the template amount as the total to be divided
	// across installments instead of the per-installment value.
	SplitAmount bool
	// Now supplies the default due date for templates without one.
	Now func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithAllowedMethods restricts installments to the given payment methods.
// Matching is case-insensitive. An empty list allows every method.
func WithAllowedMethods(methods ...string) Option {
	return func(p *Planner) {
		if len(methods) == 0 {
			p.AllowsInstallments = nil
			return
		}
		allowed := make(map[string]bool, len(methods))
		for _, m := range methods {
			allowed[normalizeMethod(m)] = true
		}
		p.AllowsInstallments = func(method string) bool {
			return allowed[normalizeMethod(method)]
		}
	}
}

// WithSplitAmount toggles dividing the template amount across installments.
func WithSplitAmount(split bool) Option {
	return func(p *Planner) {
		p.SplitAmount = split
	}
}

// WithClock overrides the clock used for the default due date.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.Now = now
	}
}

// New returns a Planner configured with opts.
func New(opts ...Option) *Planner {
	p := &Planner{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan generates an installment plan with the default Planner.
func Plan(template models.TransactionTemplate, count int) ([]models.InstallmentRecord, error) {
	return New().Plan(template, count)
}

// Plan returns count installment records derived from template. A count of
// one, or a payment method that does not allow installments, yields the
// template itself as a single record with no description suffix.
func (p *Planner) Plan(template models.TransactionTemplate, count int) ([]models.InstallmentRecord, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: installment count must be at least 1, got %d", ErrInvalidArgument, count)
	}
	if !template.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero, got %s", ErrInvalidArgument, template.Amount)
	}
	if template.DueDate.IsZero() {
		template.DueDate = p.today()
	}

	if count == 1 || !p.allows(template.PaymentMethod) {
		return []models.InstallmentRecord{{
			TransactionTemplate: template.Clone(),
			InstallmentNumber:   1,
			TotalInstallments:   1,
		}}, nil
	}

	amounts, err := p.amounts(template.Amount, count)
	if err != nil {
		return nil, err
	}
	records := make([]models.InstallmentRecord, count)
	for i := range records {
		n := i + 1
		rec := models.InstallmentRecord{
			TransactionTemplate: template.Clone(),
			InstallmentNumber:   n,
			TotalInstallments:   count,
		}
		rec.Description = fmt.Sprintf("%s - Installment %d/%d", template.Description, n, count)
		rec.DueDate = AddMonths(template.DueDate, i)
		rec.Amount = amounts[i]
		records[i] = rec
	}
	return records, nil
}

func (p *Planner) allows(method string) bool {
	if p.AllowsInstallments == nil {
		return true
	}
	return p.AllowsInstallments(method)
}

// amounts returns the per-installment values. When splitting, every part is
// truncated to cents and the remainder lands on the last installment so the
// parts always add up to the total. A total too small to give every
// installment at least one cent is rejected.
func (p *Planner) amounts(total decimal.Decimal, count int) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, count)
	if !p.SplitAmount {
		for i := range out {
			out[i] = total
		}
		return out, nil
	}
	part := total.Div(decimal.NewFromInt(int64(count))).Truncate(2)
	if !part.IsPositive() {
		return nil, fmt.Errorf("%w: amount %s cannot be split into %d installments of at least 0.01", ErrInvalidArgument, total, count)
	}
	for i := range out {
		out[i] = part
	}
	out[count-1] = total.Sub(part.Mul(decimal.NewFromInt(int64(count - 1))))
	return out, nil
}

func (p *Planner) today() time.Time {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	y, m, d := now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeMethod(m string) string {
	return strings.ToLower(strings.TrimSpace(m))
}
