package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zazmarga/tango-api/internal/quote"
)

const maxQuoteBody = 64 << 10

type addQuoteResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
	Count  int    `json:"count"`
}

func (s *Server) getRandomQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.Random(r.Context())
	if err != nil {
		s.writeQuoteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) getQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}
	q, err := s.quotes.Get(r.Context(), id)
	if err != nil {
		s.writeQuoteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) addQuote(w http.ResponseWriter, r *http.Request) {
	var req quote.NewQuote
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.quotes.Add(r.Context(), req)
	if err != nil {
		s.writeQuoteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addQuoteResponse{
		Status: fmt.Sprintf("Додано! Тепер цитат: %d", res.Total),
		ID:     res.ID,
		Count:  res.Total,
	})
}

func (s *Server) updateQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}
	var patch quote.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}
	q, err := s.quotes.Update(r.Context(), id, patch)
	if err != nil {
		s.writeQuoteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) writeQuoteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quote.ErrEmptyStore):
		writeError(w, http.StatusNotFound, codeEmptyStore, "Цитати закінчились, додай нові!")
	case errors.Is(err, quote.ErrNotFound):
		writeError(w, http.StatusNotFound, codeQuoteNotFound, "Цитата не знайдена")
	case errors.Is(err, quote.ErrInvalidQuote):
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
	default:
		s.logger.Error("quote request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal server error")
	}
}

func quoteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidID, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxQuoteBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid JSON")
		return false
	}
	return true
}
