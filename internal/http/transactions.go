package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MHMB/pennywise-finance-app/internal/categorize"
	"github.com/MHMB/pennywise-finance-app/internal/core"
	"github.com/MHMB/pennywise-finance-app/internal/storage"
)

// transactionJSON is the wire shape of a transaction. Amounts travel as
// decimal strings and dates as YYYY-MM-DD.
type transactionJSON struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	IsIncome    bool      `json:"is_income"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Date:        tx.Date.Format("2006-01-02"),
		Amount:      tx.Amount.String(),
		Category:    tx.Category,
		Description: tx.Description,
		IsIncome:    tx.IsIncome,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func toTransactionListJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx))
	}
	return out
}

type transactionRequest struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	IsIncome    bool   `json:"is_income"`
}

func (req transactionRequest) toDomain(user string) (core.Transaction, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		return core.Transaction{}, errors.New("date must be YYYY-MM-DD")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return core.Transaction{}, errors.New("amount must be a decimal number")
	}

	description := strings.TrimSpace(req.Description)
	category := strings.TrimSpace(req.Category)
	if category == "" {
		signed := amount.Abs()
		if !req.IsIncome {
			signed = signed.Neg()
		}
		category = categorize.Categorize(description, signed)
	}

	return core.Transaction{
		UserID:      user,
		Date:        date,
		Amount:      amount.Abs(),
		Category:    category,
		Description: description,
		IsIncome:    req.IsIncome,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := req.toDomain(userID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.repo.CreateTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.invalidateUser(tx.UserID)
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.TransactionFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Limit:    queryInt(r, "limit", 100),
		Offset:   queryInt(r, "offset", 0),
	}
	if v := strings.TrimSpace(q.Get("is_income")); v != "" {
		isIncome := v == "true"
		filter.IsIncome = &isIncome
	}
	if v := strings.TrimSpace(q.Get("start")); v != "" {
		start, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		filter.Start = start
	}
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		end, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}
		filter.End = end
	}

	txs, err := s.repo.ListTransactions(r.Context(), userID(r), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list transactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": toTransactionListJSON(txs),
		"count":        len(txs),
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.repo.GetTransaction(r.Context(), userID(r), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load transaction")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := req.toDomain(userID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tx.ID = id

	updated, err := s.repo.UpdateTransaction(r.Context(), tx)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.invalidateUser(tx.UserID)
	writeJSON(w, http.StatusOK, toTransactionJSON(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.repo.DeleteTransaction(r.Context(), userID(r), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not delete transaction")
		return
	}

	s.invalidateUser(userID(r))
	w.WriteHeader(http.StatusNoContent)
}

// handleFindDuplicates checks one candidate, described by query
// parameters, against the stored transactions.
func (s *Server) handleFindDuplicates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, err := time.Parse("2006-01-02", strings.TrimSpace(q.Get("date")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(q.Get("amount")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal number")
		return
	}
	description := strings.TrimSpace(q.Get("description"))
	if description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	tx := core.Transaction{
		UserID:      userID(r),
		Date:        date,
		Amount:      amount.Abs(),
		Description: description,
		IsIncome:    q.Get("is_income") == "true",
	}

	matches, err := s.importSvc.CheckDuplicate(r.Context(), tx, queryInt(r, "tolerance_days", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not check duplicates")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"is_duplicate": len(matches) > 0,
		"matches":      toTransactionListJSON(matches),
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.DistinctCategories(r.Context(), userID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}
