package executors

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/rodrigooliver/interflow-sub001/pkg/models"
)

// Plan prints a preview of the records Apply would store.
func (e *Executor) Plan(records []models.InstallmentRecord) error {
	summary := Summarize(records)
	e.logger.Debug("previewing plan", "installments", summary.Count, "total", summary.Total.StringFixed(2))

	parentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	childStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))  // cyan

	for i, r := range records {
		line := fmt.Sprintf("%s | %-40s | %5s | R$ %10s", r.Date(), r.Memo(), r.Sequence(), r.Value())
		if i == 0 {
			if _, err := fmt.Fprintln(e.Out, parentStyle.Render("+ "+line)); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(e.Out, childStyle.Render("+ "+line)); err != nil {
			return err
		}
	}

	if summary.Count == 0 {
		_, err := fmt.Fprintln(e.Out, "\nPlan: nothing to store")
		return err
	}
	_, err := fmt.Fprintf(e.Out, "\nPlan: %d installment(s) will be added, R$ %s in total, %s to %s\n",
		summary.Count, summary.Total.StringFixed(2), summary.First.Format(models.DateLayout), summary.Last.Format(models.DateLayout))
	return err
}
