package core

import (
	"sort"
	"time"
)

// ActivityDays is the length of the activity series: the calendar week
// ending today, inclusive.
const ActivityDays = 7

type (
	// CategorySpend is one slice of the spending-by-category breakdown.
	CategorySpend struct {
		Name   string `json:"name"`
		Value  Money  `json:"value"`
		Color  string `json:"color"`
		Budget Money  `json:"budget"`
	}

	// BudgetStatus reports how far a category is into its budget.
	BudgetStatus struct {
		Name       string  `json:"name"`
		Spent      Money   `json:"spent"`
		Budget     Money   `json:"budget"`
		Color      string  `json:"color"`
		Percentage float64 `json:"percentage"`
		// Unbudgeted marks categories with no budget set; their
		// percentage is clamped rather than divided by zero.
		Unbudgeted bool `json:"unbudgeted"`
	}

	// ActivityPoint is one day of the activity series.
	ActivityPoint struct {
		Date   string `json:"date"`
		Label  string `json:"label"`
		Amount Money  `json:"amount"`
	}

	// Summary carries the dataset-wide totals.
	Summary struct {
		TotalSpent  Money   `json:"total_spent"`
		TotalBudget Money   `json:"total_budget"`
		Utilization float64 `json:"utilization"`
	}

	// Dashboard is the full derived snapshot. It is recomputed from the
	// raw lists on every read and carries no state of its own, so it can
	// never go stale relative to the last write.
	Dashboard struct {
		SpendingByCategory []CategorySpend `json:"spending_by_category"`
		BudgetPerformance  []BudgetStatus  `json:"budget_performance"`
		Activity           []ActivityPoint `json:"activity"`
		RecentTransactions []Expense       `json:"recent_transactions"`
		Summary            Summary         `json:"summary"`
		TransactionCount   int             `json:"transaction_count"`
	}
)

// spentByCategory sums expense amounts keyed by category id.
func spentByCategory(expenses []Expense) map[string]int64 {
	sums := make(map[string]int64, len(expenses))
	for _, e := range expenses {
		sums[e.CategoryID] += e.Amount.Cents
	}
	return sums
}

// SpendingByCategory returns, per category, the sum of its expenses.
// Categories with zero spend are omitted; expenses whose category id
// matches nothing are excluded by construction.
func SpendingByCategory(categories []Category, expenses []Expense) []CategorySpend {
	sums := spentByCategory(expenses)
	out := make([]CategorySpend, 0, len(categories))
	for _, c := range categories {
		if sums[c.ID] <= 0 {
			continue
		}
		out = append(out, CategorySpend{
			Name:   c.Name,
			Value:  Money{Cents: sums[c.ID]},
			Color:  c.Color,
			Budget: c.Budget,
		})
	}
	return out
}

// BudgetPerformance returns every category with its spend clamped against
// its budget, sorted by percentage descending. The sort is stable: ties
// keep category encounter order.
//
// A zero budget would make the ratio undefined, so it is treated as a
// defined edge case instead: the category is flagged Unbudgeted and its
// percentage clamps to 100 when anything was spent, 0 otherwise.
func BudgetPerformance(categories []Category, expenses []Expense) []BudgetStatus {
	sums := spentByCategory(expenses)
	out := make([]BudgetStatus, 0, len(categories))
	for _, c := range categories {
		spent := sums[c.ID]
		st := BudgetStatus{
			Name:   c.Name,
			Spent:  Money{Cents: spent},
			Budget: c.Budget,
			Color:  c.Color,
		}
		switch {
		case c.Budget.Cents <= 0:
			st.Unbudgeted = true
			if spent > 0 {
				st.Percentage = 100
			}
		default:
			pct := float64(spent) / float64(c.Budget.Cents) * 100
			if pct > 100 {
				pct = 100
			}
			st.Percentage = pct
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	return out
}

// ActivitySeries builds the seven calendar dates ending today inclusive,
// in chronological order, summing the expenses whose date string equals
// each day. Matching is lexical; no time zone normalization happens.
// Labels are English weekday abbreviations.
func ActivitySeries(expenses []Expense, today time.Time) []ActivityPoint {
	sums := make(map[string]int64, len(expenses))
	for _, e := range expenses {
		sums[e.Date] += e.Amount.Cents
	}
	out := make([]ActivityPoint, 0, ActivityDays)
	for i := ActivityDays - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		key := d.Format(DateLayout)
		out = append(out, ActivityPoint{
			Date:   key,
			Label:  d.Format("Mon"),
			Amount: Money{Cents: sums[key]},
		})
	}
	return out
}

// RecentTransactions returns the n most recent expenses by date. Equal
// dates keep their stored order (stable sort), which for prepend-on-add
// storage means newest first.
func RecentTransactions(expenses []Expense, n int) []Expense {
	sorted := append([]Expense(nil), expenses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Totals sums all spend and all budgets. Utilization is not clamped: a
// user 14% over budget reads 114. A zero total budget yields zero.
func Totals(categories []Category, expenses []Expense) Summary {
	var s Summary
	for _, e := range expenses {
		s.TotalSpent.Cents += e.Amount.Cents
	}
	for _, c := range categories {
		s.TotalBudget.Cents += c.Budget.Cents
	}
	if s.TotalBudget.Cents > 0 {
		s.Utilization = float64(s.TotalSpent.Cents) / float64(s.TotalBudget.Cents) * 100
	}
	return s
}

// BuildDashboard derives the complete snapshot for one dataset.
func BuildDashboard(ds Dataset, today time.Time) Dashboard {
	return Dashboard{
		SpendingByCategory: SpendingByCategory(ds.Categories, ds.Expenses),
		BudgetPerformance:  BudgetPerformance(ds.Categories, ds.Expenses),
		Activity:           ActivitySeries(ds.Expenses, today),
		RecentTransactions: RecentTransactions(ds.Expenses, 5),
		Summary:            Totals(ds.Categories, ds.Expenses),
		TransactionCount:   len(ds.Expenses),
	}
}

// CategoryNames maps category ids to display names, with "Unknown"
// standing in for dangling references.
func CategoryNames(categories []Category) func(id string) string {
	byID := make(map[string]string, len(categories))
	for _, c := range categories {
		byID[c.ID] = c.Name
	}
	return func(id string) string {
		if name, ok := byID[id]; ok {
			return name
		}
		return "Unknown"
	}
}
