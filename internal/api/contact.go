package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zazmarga/tango-api/internal/mail"
	"github.com/zazmarga/tango-api/internal/metrics"
)

const maxFormMemory = 1 << 20

type contactResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// sendMessage relays the contact form. Provider failures are reported in the
// body with a 200 status, the contract the site's form script expects.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		metrics.ObserveContactMessage("invalid")
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid form body")
		return
	}
	req := mail.ContactRequest{
		Name:          r.PostFormValue("name"),
		Email:         r.PostFormValue("email"),
		Company:       r.PostFormValue("company"),
		Location:      r.PostFormValue("location"),
		PreferredTime: r.PostFormValue("preferred_time"),
		Message:       r.PostFormValue("message"),
	}

	err := s.mailer.Send(r.Context(), req)
	switch {
	case err == nil:
		metrics.ObserveContactMessage("sent")
		writeJSON(w, http.StatusOK, contactResponse{Status: "ok", Message: "Лист відправлено!"})
	case errors.Is(err, mail.ErrInvalidContact):
		metrics.ObserveContactMessage("invalid")
		writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
	default:
		metrics.ObserveContactMessage("failed")
		s.logger.Warn("contact relay failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, contactResponse{Status: "error", Message: err.Error()})
	}
}
