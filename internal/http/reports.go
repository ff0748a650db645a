package http

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Report endpoints are read-heavy and window-stable, so responses are
// cached per user and invalidated on every write.

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	s.cachedReport(w, r, func() (any, error) {
		anchor, err := queryAnchor(r)
		if err != nil {
			return nil, errBadRequest(err)
		}
		return s.engine.Summary(r.Context(), userID(r), queryPeriod(r), anchor)
	})
}

func (s *Server) handleReportCategory(w http.ResponseWriter, r *http.Request) {
	s.cachedReport(w, r, func() (any, error) {
		anchor, err := queryAnchor(r)
		if err != nil {
			return nil, errBadRequest(err)
		}
		breakdown, err := s.engine.CategoryBreakdown(r.Context(), userID(r), queryPeriod(r), anchor)
		if err != nil {
			return nil, err
		}
		return map[string]any{"breakdown": breakdown}, nil
	})
}

func (s *Server) handleReportTrends(w http.ResponseWriter, r *http.Request) {
	s.cachedReport(w, r, func() (any, error) {
		months := queryInt(r, "months", 12)
		trends, err := s.engine.MonthlyTrends(r.Context(), userID(r), months)
		if err != nil {
			return nil, err
		}
		return map[string]any{"trends": trends}, nil
	})
}

func (s *Server) handleReportBudget(w http.ResponseWriter, r *http.Request) {
	s.cachedReport(w, r, func() (any, error) {
		statuses, err := s.engine.BudgetPerformance(r.Context(), userID(r), queryPeriod(r))
		if err != nil {
			return nil, err
		}
		return map[string]any{"budgets": statuses}, nil
	})
}

// badRequestError marks a compute error as the caller's fault.
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }

func errBadRequest(err error) error { return badRequestError{err: err} }

// cachedReport serves the computed payload from the per-user cache when
// possible. Cache keys include path and query so different windows do
// not collide.
func (s *Server) cachedReport(w http.ResponseWriter, r *http.Request, compute func() (any, error)) {
	key := userID(r) + "|" + r.URL.Path + "?" + r.URL.RawQuery

	if cached, ok := s.reportCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	payload, err := compute()
	if err != nil {
		var badReq badRequestError
		if errors.As(err, &badReq) {
			writeError(w, http.StatusBadRequest, badReq.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "could not compute report")
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not encode report")
		return
	}
	s.reportCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
