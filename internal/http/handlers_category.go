package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"trackit/internal/core"
	"trackit/internal/log"
)

type addCategoryRequest struct {
	Name   string        `json:"name"`
	Budget decimalString `json:"budget"`
}

type updateBudgetRequest struct {
	Budget decimalString `json:"budget"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	ds, err := s.tracker.Dataset(r.Context(), sess.User.Email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load categories",
			log.FieldUserEmail, sess.User.Email,
			log.FieldError, err.Error())
		InternalServerError("could not load categories").Write(w)
		return
	}

	NewJSONResponse().Data(ds.Categories).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	budget, err := core.ParseBudget(req.Budget.String())
	if err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	sess := sessionFrom(r.Context())
	cat, err := s.tracker.AddCategory(r.Context(), sess.User.Email, sanitizeInput(req.Name), budget)
	if err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "Category added",
		log.FieldUserEmail, sess.User.Email,
		log.FieldCategoryID, cat.ID)
	NewJSONResponse().Status(http.StatusCreated).Data(cat).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req updateBudgetRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	budget, err := core.ParseBudget(req.Budget.String())
	if err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	sess := sessionFrom(r.Context())
	id := chi.URLParam(r, "id")

	cat, err := s.tracker.UpdateCategoryBudget(r.Context(), sess.User.Email, id, budget)
	if err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	NewJSONResponse().Data(cat).Write(w)
}
