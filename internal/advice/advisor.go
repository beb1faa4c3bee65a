// Package advice requests narrative financial advice from a generative
// text service. The call can never fault the caller: every failure mode
// collapses into a fixed fallback message.
package advice

import (
	"context"
	"fmt"
	"strings"

	"trackit/internal/core"
)

// Fallback is returned whenever the external service cannot produce
// advice, for any reason.
const Fallback = "Sorry, I'm having trouble connecting to the financial brain right now. Please try again later."

// emptyResponse stands in when the service answered but with no text.
const emptyResponse = "I couldn't generate advice at this moment."

// Advisor produces advice text for a user's current lists. The returned
// string is always usable; implementations must not surface errors.
type Advisor interface {
	GetAdvice(ctx context.Context, expenses []core.Expense, categories []core.Category, userName string) string
}

// BuildPrompt renders the spending summary the model is asked to
// analyze: the overall total plus one line per category.
func BuildPrompt(expenses []core.Expense, categories []core.Category, userName string) string {
	total := core.Totals(categories, expenses).TotalSpent

	var breakdown strings.Builder
	for i, cat := range categories {
		var spent core.Money
		for _, e := range expenses {
			if e.CategoryID == cat.ID {
				spent.Cents += e.Amount.Cents
			}
		}
		if i > 0 {
			breakdown.WriteByte('\n')
		}
		fmt.Fprintf(&breakdown, "%s: Spent %s / Budget %s", cat.Name, spent, cat.Budget)
	}

	return fmt.Sprintf(`You are a helpful, professional, and concise financial advisor for a user named %s.
Analyze the following financial data:

Total Spent: %s

Category Breakdown:
%s

Please provide 3 personalized, actionable tips or insights based on this data.
Focus on where they are over budget or doing well.
Keep the tone encouraging but practical.
Format the output as a clean list. Do not use markdown bolding too aggressively.`,
		userName, total, breakdown.String())
}

// Static is a canned advisor for the static backend and for tests.
type Static struct {
	Text string
}

func (s Static) GetAdvice(context.Context, []core.Expense, []core.Category, string) string {
	if s.Text == "" {
		return "1. Track every expense as it happens.\n2. Review your biggest category each week.\n3. Keep budgets realistic so they stay useful."
	}
	return s.Text
}
