package http

import (
	"net/http"

	"trackit/internal/core"
)

type switchTabRequest struct {
	Tab string `json:"tab"`
}

type themeResponse struct {
	DarkMode bool `json:"dark_mode"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(sessionFrom(r.Context())).Write(w)
}

func (s *Server) handleSwitchTab(w http.ResponseWriter, r *http.Request) {
	var req switchTabRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	sess := sessionFrom(r.Context())
	if !s.sessions.SwitchTab(sess.Token, core.Tab(req.Tab)) {
		BadRequestError("unknown tab").Write(w)
		return
	}

	updated, _ := s.sessions.Get(sess.Token)
	NewJSONResponse().Data(updated).Write(w)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	dark, ok := s.sessions.ToggleTheme(sess.Token)
	if !ok {
		UnauthorizedError("unknown session token").Write(w)
		return
	}
	NewJSONResponse().Data(themeResponse{DarkMode: dark}).Write(w)
}
