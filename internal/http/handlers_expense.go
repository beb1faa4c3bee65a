package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"trackit/internal/core"
	"trackit/internal/log"
)

type addExpenseRequest struct {
	Description string        `json:"description"`
	Amount      decimalString `json:"amount"`
	Date        string        `json:"date"`
	CategoryID  string        `json:"category_id"`
}

// expenseView is an expense with its category name resolved.
type expenseView struct {
	core.Expense
	Category string `json:"category"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	ds, err := s.tracker.Dataset(r.Context(), sess.User.Email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load expenses",
			log.FieldUserEmail, sess.User.Email,
			log.FieldError, err.Error())
		InternalServerError("could not load expenses").Write(w)
		return
	}

	nameFor := core.CategoryNames(ds.Categories)
	views := make([]expenseView, 0, len(ds.Expenses))
	for _, e := range ds.Expenses {
		views = append(views, expenseView{Expense: e, Category: nameFor(e.CategoryID)})
	}

	NewJSONResponse().Data(views).Write(w)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req addExpenseRequest
	if err := decodeBody(w, r, &req); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	sess := sessionFrom(r.Context())
	exp, err := s.tracker.AddExpense(r.Context(), sess.User.Email,
		sanitizeInput(req.Description), sanitizeInput(req.Date), amount, req.CategoryID)
	if err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	s.logger.InfoContext(r.Context(), "Expense added",
		log.FieldUserEmail, sess.User.Email,
		log.FieldExpenseID, exp.ID,
		log.FieldAmount, exp.Amount.Cents)
	NewJSONResponse().Status(http.StatusCreated).Data(exp).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.tracker.DeleteExpense(r.Context(), sess.User.Email, id); err != nil {
		domainErrorResponse(err).Write(w)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		log.FieldUserEmail, sess.User.Email,
		log.FieldExpenseID, id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
