// Package services orchestrates user actions over the stores, the
// change-event pipeline, and the advice client.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"trackit/internal/advice"
	"trackit/internal/core"
	"trackit/internal/events"
	"trackit/internal/log"
	"trackit/internal/store"
)

// ErrAdviceInFlight rejects a second advice request while one is still
// pending for the same user.
var ErrAdviceInFlight = errors.New("advice request already in flight")

// ChangePublisher publishes dataset change events. The AMQP client
// satisfies it; a nil publisher disables the pipeline.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event events.ChangeEvent) error
}

// Tracker applies user actions to a dataset and keeps it persisted.
// Every mutation loads the stored lists, applies the change, writes the
// whole dataset back (last writer wins), and emits a change event.
// Derived views are recomputed from the stored lists on every read, so
// they can never go stale relative to the last write.
type Tracker struct {
	datasets  store.Datasets
	publisher ChangePublisher
	advisor   advice.Advisor
	logger    *log.Logger

	adviceMu sync.Mutex
	pending  map[string]bool
}

func NewTracker(datasets store.Datasets, publisher ChangePublisher, advisor advice.Advisor, logger *log.Logger) *Tracker {
	return &Tracker{
		datasets:  datasets,
		publisher: publisher,
		advisor:   advisor,
		logger:    logger.WithComponent(log.ComponentTracker),
		pending:   make(map[string]bool),
	}
}

// Dashboard returns the full derived snapshot for a user.
func (t *Tracker) Dashboard(ctx context.Context, email string) (core.Dashboard, error) {
	ds, err := t.datasets.Load(ctx, email)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("load dataset: %w", err)
	}
	return core.BuildDashboard(ds, time.Now()), nil
}

// Dataset returns the raw lists.
func (t *Tracker) Dataset(ctx context.Context, email string) (core.Dataset, error) {
	ds, err := t.datasets.Load(ctx, email)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("load dataset: %w", err)
	}
	return ds, nil
}

// AddExpense validates and prepends a new expense. The category id is
// recorded as given and not checked against the category list; a
// dangling reference renders as "Unknown" downstream.
func (t *Tracker) AddExpense(ctx context.Context, email, description, date string, amount core.Money, categoryID string) (core.Expense, error) {
	exp := core.Expense{
		ID:          core.NewID(),
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Date:        date,
		CategoryID:  categoryID,
	}
	if err := exp.Validate(); err != nil {
		return core.Expense{}, err
	}

	ds, err := t.datasets.Load(ctx, email)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load dataset: %w", err)
	}
	ds.Expenses = append([]core.Expense{exp}, ds.Expenses...)
	if err := t.datasets.Save(ctx, email, ds); err != nil {
		return core.Expense{}, fmt.Errorf("save dataset: %w", err)
	}

	t.logger.InfoContext(ctx, "Expense added",
		log.FieldUserEmail, email,
		log.FieldExpenseID, exp.ID,
		log.FieldAmount, exp.Amount.Cents)
	t.publish(ctx, events.NewChangeEvent(email, events.KindExpenseAdded, exp.ID))
	return exp, nil
}

// DeleteExpense removes one expense by id.
func (t *Tracker) DeleteExpense(ctx context.Context, email, id string) error {
	ds, err := t.datasets.Load(ctx, email)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	kept := ds.Expenses[:0]
	found := false
	for _, e := range ds.Expenses {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return core.ErrExpenseNotFound
	}
	ds.Expenses = kept

	if err := t.datasets.Save(ctx, email, ds); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}

	t.logger.InfoContext(ctx, "Expense deleted",
		log.FieldUserEmail, email,
		log.FieldExpenseID, id)
	t.publish(ctx, events.NewChangeEvent(email, events.KindExpenseDeleted, id))
	return nil
}

// AddCategory appends a new category with a random color.
func (t *Tracker) AddCategory(ctx context.Context, email, name string, budget core.Money) (core.Category, error) {
	cat := core.Category{
		ID:     core.NewID(),
		Name:   strings.TrimSpace(name),
		Budget: budget,
		Color:  randomColor(),
	}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}

	ds, err := t.datasets.Load(ctx, email)
	if err != nil {
		return core.Category{}, fmt.Errorf("load dataset: %w", err)
	}
	ds.Categories = append(ds.Categories, cat)
	if err := t.datasets.Save(ctx, email, ds); err != nil {
		return core.Category{}, fmt.Errorf("save dataset: %w", err)
	}

	t.logger.InfoContext(ctx, "Category added",
		log.FieldUserEmail, email,
		log.FieldCategoryID, cat.ID)
	t.publish(ctx, events.NewChangeEvent(email, events.KindCategoryAdded, cat.ID))
	return cat, nil
}

// UpdateCategoryBudget edits one category's budget in place. Zero is a
// legal budget; the aggregations flag it instead of dividing by it.
func (t *Tracker) UpdateCategoryBudget(ctx context.Context, email, id string, budget core.Money) (core.Category, error) {
	if budget.Cents < 0 {
		return core.Category{}, core.ErrInvalidBudget
	}

	ds, err := t.datasets.Load(ctx, email)
	if err != nil {
		return core.Category{}, fmt.Errorf("load dataset: %w", err)
	}

	updated := core.Category{}
	found := false
	for i := range ds.Categories {
		if ds.Categories[i].ID == id {
			ds.Categories[i].Budget = budget
			updated = ds.Categories[i]
			found = true
			break
		}
	}
	if !found {
		return core.Category{}, core.ErrCategoryNotFound
	}

	if err := t.datasets.Save(ctx, email, ds); err != nil {
		return core.Category{}, fmt.Errorf("save dataset: %w", err)
	}

	t.logger.InfoContext(ctx, "Category budget updated",
		log.FieldUserEmail, email,
		log.FieldCategoryID, id,
		log.FieldAmount, budget.Cents)
	t.publish(ctx, events.NewChangeEvent(email, events.KindBudgetUpdated, id))
	return updated, nil
}

// RequestAdvice asks the advisor for narrative advice on the current
// lists. Only one request per user may be pending at a time; the answer
// reflects the snapshot taken when the request started, which may be
// stale by the time it lands. That staleness is accepted.
func (t *Tracker) RequestAdvice(ctx context.Context, email, userName string) (string, error) {
	t.adviceMu.Lock()
	if t.pending[email] {
		t.adviceMu.Unlock()
		return "", ErrAdviceInFlight
	}
	t.pending[email] = true
	t.adviceMu.Unlock()

	defer func() {
		t.adviceMu.Lock()
		delete(t.pending, email)
		t.adviceMu.Unlock()
	}()

	ds, err := t.datasets.Load(ctx, email)
	if err != nil {
		return "", fmt.Errorf("load dataset: %w", err)
	}

	// The advisor cannot fault; whatever comes back is presentable.
	return t.advisor.GetAdvice(ctx, ds.Expenses, ds.Categories, userName), nil
}

// publish emits a change event fire-and-forget. The mutation is already
// durable, so failures are logged and swallowed.
func (t *Tracker) publish(ctx context.Context, event events.ChangeEvent) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishChange(ctx, event); err != nil {
		t.logger.ErrorContext(ctx, "Failed to publish change event",
			log.FieldEventKind, event.Kind,
			log.FieldError, err.Error())
	}
}

func randomColor() string {
	return fmt.Sprintf("#%06X", rand.Intn(0x1000000))
}
