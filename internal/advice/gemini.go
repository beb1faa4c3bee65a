package advice

import (
	"context"
	"strings"
	"time"

	goption "google.golang.org/api/option"

	genlang "google.golang.org/api/generativelanguage/v1beta"

	"trackit/internal/core"
	"trackit/internal/log"
)

// Gemini asks Google's generative language API for advice text.
type Gemini struct {
	svc     *genlang.Service
	model   string
	timeout time.Duration
	logger  *log.Logger
}

var _ Advisor = (*Gemini)(nil)

// NewGemini builds the client. model is the fully qualified name, e.g.
// "models/gemini-2.5-flash". The timeout bounds every request; the
// original had none, which left callers hanging on a slow upstream.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, logger *log.Logger) (*Gemini, error) {
	svc, err := genlang.NewService(ctx, goption.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	return &Gemini{
		svc:     svc,
		model:   model,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentAdvice),
	}, nil
}

// GetAdvice sends the spending summary and returns the model's text
// verbatim. Transport errors, API errors, empty candidates, and empty
// text all degrade to the fixed fallback; this method never fails.
func (g *Gemini) GetAdvice(ctx context.Context, expenses []core.Expense, categories []core.Category, userName string) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &genlang.GenerateContentRequest{
		Contents: []*genlang.Content{{
			Role:  "user",
			Parts: []*genlang.Part{{Text: BuildPrompt(expenses, categories, userName)}},
		}},
	}

	resp, err := g.svc.Models.GenerateContent(g.model, req).Context(ctx).Do()
	if err != nil {
		g.logger.ErrorContext(ctx, "Advice request failed", log.FieldError, err.Error())
		return Fallback
	}

	text := extractText(resp)
	if text == "" {
		g.logger.WarnContext(ctx, "Advice response carried no text")
		return emptyResponse
	}
	return text
}

func extractText(resp *genlang.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}
