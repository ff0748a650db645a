package http

import (
	"io"
	"net/http"
	"strings"
)

// handleImportCSV accepts a CSV file either as a multipart upload under
// the "file" field or as the raw request body.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.importMaxBytes)

	content, err := readCSVBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(content) == "" {
		writeError(w, http.StatusBadRequest, "empty CSV file")
		return
	}

	user := userID(r)
	outcome, err := s.importSvc.ImportCSV(r.Context(), user, content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	if len(outcome.Imported) > 0 {
		s.invalidateUser(user)
	}

	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]any{
		"success":            outcome.Success,
		"imported":           toTransactionListJSON(outcome.Imported),
		"imported_count":     len(outcome.Imported),
		"skipped_duplicates": outcome.SkippedDuplicates,
		"errors":             outcome.Errors,
		"total_rows":         outcome.TotalRows,
		"processed_rows":     outcome.ProcessedRows,
	})
}

func readCSVBody(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", err
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
