package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/pitch-intel/internal/model"
	"github.com/sells-group/pitch-intel/internal/prompt"
	"github.com/sells-group/pitch-intel/pkg/perplexity"
)

// Research queries Perplexity for company background. It never fails the
// job: every error is absorbed into a ResearchResult whose Content explains
// what went wrong.
func (r *Runner) Research(ctx context.Context, companyName string) model.ResearchResult {
	if r.cfg.Perplexity.Key == "" {
		return researchFailure("perplexity api key not configured")
	}

	promptText, err := r.prompts.Render(prompt.SalesResearch, companyName)
	if err != nil {
		return researchFailure("research prompt unavailable: " + err.Error())
	}

	maxTokens := r.cfg.Perplexity.MaxTokens
	temperature := r.cfg.Perplexity.Temperature
	topP := r.cfg.Perplexity.TopP

	resp, err := r.perplexity.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model:       r.cfg.Perplexity.Model,
		Messages:    []perplexity.Message{{Role: "user", Content: promptText}},
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	})
	if err != nil {
		zap.L().Warn("research query failed",
			zap.String("company", companyName),
			zap.Error(err),
		)
		return researchFailure("research request failed: " + err.Error())
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return researchFailure("no content in research response")
	}

	modelName := resp.Model
	if modelName == "" {
		modelName = r.cfg.Perplexity.Model
	}

	return model.ResearchResult{
		Success: true,
		Content: resp.Choices[0].Message.Content,
		Model:   modelName,
		Usage:   resp.Usage,
	}
}

// researchFailure builds the failed-research result. Content carries the
// explanation so consumers never see an empty payload.
func researchFailure(explanation string) model.ResearchResult {
	return model.ResearchResult{
		Success: false,
		Content: explanation,
	}
}
