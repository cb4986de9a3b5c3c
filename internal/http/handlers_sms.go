package http

import (
	"errors"
	"net/http"

	"log/slog"

	applog "finsight/internal/log"
	"finsight/internal/sms"
)

type parseSMSRequest struct {
	Text string `json:"text"`
}

type importSMSRequest struct {
	Messages []string `json:"messages"`
}

type importLineResponse struct {
	Line        int                  `json:"line"`
	Raw         string               `json:"raw"`
	Transaction *transactionResponse `json:"transaction,omitempty"`
	Error       string               `json:"error,omitempty"`
}

type importResponse struct {
	Imported int                  `json:"imported"`
	Failed   int                  `json:"failed"`
	Results  []importLineResponse `json:"results"`
}

func (s *Server) handleParseSMS(w http.ResponseWriter, r *http.Request) {
	var req parseSMSRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	created, err := s.transactions.CreateFromSMS(r.Context(), userIDFromContext(r.Context()), req.Text, s.now())
	if err != nil {
		if errors.Is(err, sms.ErrUnparseable) {
			writeError(w, http.StatusUnprocessableEntity, "could not parse SMS")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to import SMS", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to import SMS")
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleImportSMS(w http.ResponseWriter, r *http.Request) {
	var req importSMSRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages is required")
		return
	}
	if len(req.Messages) > 500 {
		writeError(w, http.StatusBadRequest, "too many messages (max 500)")
		return
	}

	results := s.importer.Import(r.Context(), userIDFromContext(r.Context()), req.Messages, s.now())

	resp := importResponse{Results: make([]importLineResponse, 0, len(results))}
	for _, res := range results {
		line := importLineResponse{Line: res.Line, Raw: res.Raw}
		if res.Err != nil {
			resp.Failed++
			line.Error = res.Err.Error()
		} else {
			resp.Imported++
			tx := toTransactionResponse(res.Transaction)
			line.Transaction = &tx
		}
		resp.Results = append(resp.Results, line)
	}

	writeJSON(w, http.StatusOK, resp)
}
