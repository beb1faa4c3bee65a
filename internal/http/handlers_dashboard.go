package http

import (
	"net/http"

	"trackit/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	dash, err := s.tracker.Dashboard(r.Context(), sess.User.Email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to build dashboard",
			log.FieldUserEmail, sess.User.Email,
			log.FieldError, err.Error())
		InternalServerError("could not build dashboard").Write(w)
		return
	}

	NewJSONResponse().Data(dash).Write(w)
}
