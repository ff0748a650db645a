package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MHMB/pennywise-finance-app/internal/core"
	"github.com/MHMB/pennywise-finance-app/internal/storage"
)

type budgetJSON struct {
	ID        int64     `json:"id"`
	Category  string    `json:"category"`
	Limit     string    `json:"limit"`
	Period    string    `json:"period"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{
		ID:        b.ID,
		Category:  b.Category,
		Limit:     b.Limit.String(),
		Period:    string(b.Period),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type budgetRequest struct {
	Category string `json:"category"`
	Limit    string `json:"limit"`
	Period   string `json:"period"`
}

func (req budgetRequest) toDomain(user string) (core.Budget, error) {
	limit, err := decimal.NewFromString(strings.TrimSpace(req.Limit))
	if err != nil {
		return core.Budget{}, errors.New("limit must be a decimal number")
	}
	return core.Budget{
		UserID:   user,
		Category: strings.TrimSpace(req.Category),
		Limit:    limit,
		Period:   core.ParsePeriod(req.Period),
	}, nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := req.toDomain(userID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.repo.CreateBudget(r.Context(), b)
	if errors.Is(err, storage.ErrBudgetExists) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.invalidateUser(b.UserID)
	writeJSON(w, http.StatusCreated, toBudgetJSON(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	var period core.Period
	if v := strings.TrimSpace(r.URL.Query().Get("period")); v != "" {
		period = core.ParsePeriod(v)
	}

	budgets, err := s.repo.ListBudgets(r.Context(), userID(r), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list budgets")
		return
	}

	out := make([]budgetJSON, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetJSON(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": out})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.repo.GetBudget(r.Context(), userID(r), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "budget not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load budget")
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := req.toDomain(userID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b.ID = id

	updated, err := s.repo.UpdateBudget(r.Context(), b)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "budget not found")
		return
	}
	if errors.Is(err, storage.ErrBudgetExists) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.invalidateUser(b.UserID)
	writeJSON(w, http.StatusOK, toBudgetJSON(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.repo.DeleteBudget(r.Context(), userID(r), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "budget not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not delete budget")
		return
	}

	s.invalidateUser(userID(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.engine.BudgetPerformance(r.Context(), userID(r), queryPeriod(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not compute budget status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": statuses})
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.engine.Alerts(r.Context(), userID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not compute alerts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleBudgetRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.engine.Recommendations(r.Context(), userID(r), queryPeriod(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not compute recommendations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

// handleBudgetHistory resolves the budget by id and back-fills monthly
// performance for its category.
func (s *Server) handleBudgetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := userID(r)
	b, err := s.repo.GetBudget(r.Context(), user, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "budget not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load budget")
		return
	}

	months := queryInt(r, "months", 6)
	history, err := s.engine.PerformanceHistory(r.Context(), user, b.Category, months)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not compute history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": b.Category,
		"history":  history,
	})
}

type optimizeRequest struct {
	TotalBudget string `json:"total_budget"`
}

func (s *Server) handleOptimizeBudgets(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := decimal.NewFromString(strings.TrimSpace(req.TotalBudget))
	if err != nil || !total.IsPositive() {
		writeError(w, http.StatusBadRequest, "total_budget must be a positive decimal number")
		return
	}

	allocations, err := s.engine.OptimizeAllocation(r.Context(), userID(r), total)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not optimize allocation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_budget": total.String(),
		"allocations":  allocations,
	})
}
