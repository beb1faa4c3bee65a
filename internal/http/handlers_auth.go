package http

import (
	"net/http"

	"trackit/internal/log"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type externalLogInRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	sess, err := s.auth.SignUp(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Email), req.Password)
	if err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "User signed up",
		log.FieldUserEmail, sess.User.Email)
	NewJSONResponse().Status(http.StatusCreated).Data(sess).Write(w)
}

func (s *Server) handleLogIn(w http.ResponseWriter, r *http.Request) {
	var req logInRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	sess, err := s.auth.LogIn(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	NewJSONResponse().Data(sess).Write(w)
}

func (s *Server) handleLogInExternal(w http.ResponseWriter, r *http.Request) {
	var req externalLogInRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	sess, err := s.auth.LogInExternal(r.Context(), sanitizeInput(req.Email))
	if err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	NewJSONResponse().Data(sess).Write(w)
}

// handleLogOut closes the session named by the bearer token. Logging
// out an already-closed session succeeds.
func (s *Server) handleLogOut(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		s.auth.LogOut(r.Context(), token)
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
