package core

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	TabOverview Tab = "overview"
	TabExpenses Tab = "expenses"
	TabSettings Tab = "settings"
)

// DateLayout is the wire form of expense dates. Aggregations compare
// these strings lexically, never through time zones.
const DateLayout = "2006-01-02"

type (
	// Tab names the dashboard sub-views a session can be on.
	Tab string

	Money struct {
		Cents int64 `json:"cents"`
	}

	// User is the public identity record. Credentials live separately.
	User struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// Credential is the stored signup record. The password is kept in
	// plaintext on purpose: the login flow simulates a mocked federated
	// provider and is an explicit trust boundary, not a hardening target.
	Credential struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	Category struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Budget Money  `json:"budget"`
		Color  string `json:"color"`
	}

	Expense struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Date        string `json:"date"`
		CategoryID  string `json:"category_id"`
	}

	// Dataset is the atomic unit of persistence: everything one user owns.
	Dataset struct {
		Expenses   []Expense  `json:"expenses"`
		Categories []Category `json:"categories"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidBudget    = errors.New("invalid budget")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrDuplicateUser    = errors.New("user with this email already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrCategoryNotFound = errors.New("category not found")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(u.Email) == "" || !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// User strips the password from a credential record.
func (c Credential) User() User {
	return User{Name: c.Name, Email: c.Email}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Budget.Cents < 0 {
		return ErrInvalidBudget
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return ValidateDate(e.Date)
}

// ValidateDate checks the yyyy-mm-dd form the aggregations match on.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// DefaultCategories returns the five seed categories every new user
// starts with.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Food & Dining", Budget: Money{Cents: 50000}, Color: "#FF6B6B"},
		{ID: "2", Name: "Transportation", Budget: Money{Cents: 30000}, Color: "#4ECDC4"},
		{ID: "3", Name: "Utilities", Budget: Money{Cents: 20000}, Color: "#45B7D1"},
		{ID: "4", Name: "Entertainment", Budget: Money{Cents: 15000}, Color: "#96CEB4"},
		{ID: "5", Name: "Shopping", Budget: Money{Cents: 40000}, Color: "#FFEEAD"},
	}
}

// DefaultDataset is what a user without stored data resolves to.
func DefaultDataset() Dataset {
	return Dataset{Expenses: []Expense{}, Categories: DefaultCategories()}
}

var (
	idMu   sync.Mutex
	lastID int64
)

// NewID returns a timestamp-based identifier, unique within the process.
// Millisecond timestamps collide under rapid submissions, so equal values
// are bumped monotonically.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return strconv.FormatInt(id, 10)
}
