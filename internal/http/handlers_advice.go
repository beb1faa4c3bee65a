package http

import (
	"net/http"

	"trackit/internal/log"
)

type adviceResponse struct {
	Advice string `json:"advice"`
}

// handleAdvice runs one advice request per user at a time. A second
// request while the first is still running gets 409.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	text, err := s.tracker.RequestAdvice(r.Context(), sess.User.Email, sess.User.Name)
	if err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "Advice delivered",
		log.FieldUserEmail, sess.User.Email)
	NewJSONResponse().Data(adviceResponse{Advice: text}).Write(w)
}
