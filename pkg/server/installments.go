package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rodrigooliver/interflow-sub001/pkg/csv"
	"github.com/rodrigooliver/interflow-sub001/pkg/executors"
	"github.com/rodrigooliver/interflow-sub001/pkg/installment"
	"github.com/rodrigooliver/interflow-sub001/pkg/models"
	"github.com/rodrigooliver/interflow-sub001/pkg/store"
)

// templateRequest is the wire form of a transaction template. Dates travel as
// YYYY-MM-DD.
type templateRequest struct {
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       string          `json:"due_date"`
	Category      string          `json:"category"`
	Cashier       string          `json:"cashier"`
	PaymentMethod string          `json:"payment_method"`
	Account       string          `json:"account"`
	Extra         map[string]any  `json:"extra"`
}

type planRequest struct {
	OrganizationID string          `json:"organization_id"`
	Template       templateRequest `json:"template"`
	Count          int             `json:"count"`
}

// Installment is an installment record as returned by the API.
type Installment struct {
	ID                  string         `json:"id,omitempty"`
	OrganizationID      string         `json:"organization_id,omitempty"`
	Description         string         `json:"description"`
	Amount              string         `json:"amount"`
	DueDate             string         `json:"due_date"`
	Category            string         `json:"category,omitempty"`
	Cashier             string         `json:"cashier,omitempty"`
	PaymentMethod       string         `json:"payment_method,omitempty"`
	Account             string         `json:"account,omitempty"`
	Extra               map[string]any `json:"extra,omitempty"`
	InstallmentNumber   int            `json:"installment_number"`
	TotalInstallments   int            `json:"total_installments"`
	ParentTransactionID *string        `json:"parent_transaction_id"`
}

func toInstallments(recs []models.InstallmentRecord) []Installment {
	out := make([]Installment, len(recs))
	for i, r := range recs {
		out[i] = Installment{
			ID:                  r.ID,
			OrganizationID:      r.OrganizationID,
			Description:         r.Description,
			Amount:              r.Value(),
			DueDate:             r.Date(),
			Category:            r.Category,
			Cashier:             r.Cashier,
			PaymentMethod:       r.PaymentMethod,
			Account:             r.Account,
			Extra:               r.Extra,
			InstallmentNumber:   r.InstallmentNumber,
			TotalInstallments:   r.TotalInstallments,
			ParentTransactionID: r.ParentTransactionID,
		}
	}
	return out
}

func (req *planRequest) template() (models.TransactionTemplate, error) {
	t := models.TransactionTemplate{
		OrganizationID: req.OrganizationID,
		Description:    req.Template.Description,
		Amount:         req.Template.Amount,
		Category:       req.Template.Category,
		Cashier:        req.Template.Cashier,
		PaymentMethod:  req.Template.PaymentMethod,
		Account:        req.Template.Account,
		Extra:          req.Template.Extra,
	}
	if req.Template.DueDate != "" {
		due, err := time.Parse(models.DateLayout, req.Template.DueDate)
		if err != nil {
			return t, fmt.Errorf("%w: due_date %q is not YYYY-MM-DD", installment.ErrInvalidArgument, req.Template.DueDate)
		}
		t.DueDate = due
	}
	return t, nil
}

// plan decodes the request body and runs the planner. It writes the error
// response itself and returns ok=false on failure.
func (s *Server) plan(w http.ResponseWriter, r *http.Request) (*planRequest, []models.InstallmentRecord, bool) {
	var req planRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return nil, nil, false
	}

	tmpl, err := req.template()
	if err == nil {
		var recs []models.InstallmentRecord
		if recs, err = s.planner.Plan(tmpl, req.Count); err == nil {
			return &req, recs, true
		}
	}
	if errors.Is(err, installment.ErrInvalidArgument) {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return nil, nil, false
	}
	s.respondError(w, r, http.StatusInternalServerError, "failed to plan installments", err)
	return nil, nil, false
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	_, recs, ok := s.plan(w, r)
	if !ok {
		return
	}

	if err := s.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"installments": toInstallments(recs),
		"summary":      executors.Summarize(recs),
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, recs, ok := s.plan(w, r)
	if !ok {
		return
	}
	if req.OrganizationID == "" {
		s.respondError(w, r, http.StatusBadRequest, "organization_id required", nil)
		return
	}

	stored, err := s.executor.Apply(r.Context(), req.OrganizationID, recs)
	if err != nil {
		s.logger.Warn("apply failed", "organization_id", req.OrganizationID, "stored", len(stored), "total", len(recs), "err", err)
		if werr := s.writeJSON(w, http.StatusBadGateway, map[string]any{
			"status":       "error",
			"error":        "failed to store installments",
			"installments": toInstallments(stored),
		}); werr != nil {
			s.logger.Warn("failed to write json response", "err", werr)
		}
		return
	}

	if err := s.writeJSON(w, http.StatusCreated, map[string]any{
		"status":       "success",
		"installments": toInstallments(stored),
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// listFilter reads the query parameters shared by the list and export
// endpoints.
func listFilter(r *http.Request) (string, store.Filter, error) {
	q := r.URL.Query()
	org := q.Get("organization_id")
	if org == "" {
		return "", store.Filter{}, fmt.Errorf("organization_id required")
	}

	f := store.Filter{ParentTransactionID: q.Get("parent")}
	for name, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		if v := q.Get(name); v != "" {
			t, err := time.Parse(models.DateLayout, v)
			if err != nil {
				return "", f, fmt.Errorf("%s must be YYYY-MM-DD", name)
			}
			*dst = t
		}
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return "", f, fmt.Errorf("%s must be a non-negative integer", name)
			}
			*dst = n
		}
	}
	return org, f, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	org, filter, err := listFilter(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	recs, err := s.store.List(r.Context(), org, filter)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to list installments", err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"installments": toInstallments(recs),
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	org, filter, err := listFilter(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	recs, err := s.store.List(r.Context(), org, filter)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to list installments", err)
		return
	}

	filename := "installments-" + strings.ReplaceAll(org, "\"", "") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(csv.Create(csv.Pointers(recs), nil)); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	org := r.URL.Query().Get("organization_id")
	if org == "" {
		s.respondError(w, r, http.StatusBadRequest, "organization_id required", nil)
		return
	}

	rec, err := s.store.Get(r.Context(), org, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, "installment not found", nil)
		return
	}
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to get installment", err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"installment": toInstallments([]models.InstallmentRecord{*rec})[0],
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	org := r.URL.Query().Get("organization_id")
	if org == "" {
		s.respondError(w, r, http.StatusBadRequest, "organization_id required", nil)
		return
	}

	err := s.store.Delete(r.Context(), org, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, "installment not found", nil)
		return
	}
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to delete installment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
