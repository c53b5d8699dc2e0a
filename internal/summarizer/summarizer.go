// Package summarizer turns release notes into a short bullet list with a
// language model.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manifest-network/upgrade-helper/internal/failure"
	"github.com/manifest-network/upgrade-helper/internal/llm"
	"github.com/manifest-network/upgrade-helper/internal/metrics"
	"github.com/manifest-network/upgrade-helper/internal/models"
	"github.com/manifest-network/upgrade-helper/internal/utils"
)

// ErrSummarizationUnavailable is returned once every attempt failed transiently.
var ErrSummarizationUnavailable = errors.New("summarization unavailable")

var errEmptySummary = errors.New("model returned an empty summary")

const instructions = "Please provide a brief summary for the following release notes using bullet points. " +
	"You do not need to mention the version or release data, only the changes. " +
	"Please also just provide a description of the changes but don't mention the change types like State Machine Breaking. " +
	"Please do not include any pull request links. " +
	"Please keep the summary to a maximum of 10 bullet points.\n"

// CompletionClient answers a prompt with the given model.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, model llm.Model) (string, error)
}

// Summarizer builds bounded prompts and retries transient completion failures.
type Summarizer struct {
	client         CompletionClient
	maxPromptChars int
	retry          utils.RetryPolicy
	metrics        *metrics.Recorder
}

// New creates a Summarizer. policy.MaxAttempts is replaced per call.
func New(client CompletionClient, maxPromptChars int, policy utils.RetryPolicy, rec *metrics.Recorder) *Summarizer {
	return &Summarizer{client: client, maxPromptChars: maxPromptChars, retry: policy, metrics: rec}
}

// Summarize asks model for a summary of notes, trying at most maxAttempts times.
func (s *Summarizer) Summarize(ctx context.Context, notes string, model llm.Model, maxAttempts int) (models.Summary, error) {
	if maxAttempts < 1 {
		return models.Summary{}, fmt.Errorf("max attempts must be at least 1, got %d", maxAttempts)
	}
	prompt := BuildPrompt(notes, s.maxPromptChars)

	policy := s.retry
	policy.MaxAttempts = uint(maxAttempts)

	var text string
	attempts, err := utils.Retry(ctx, policy, "summarize", func(ctx context.Context) error {
		out, err := s.client.Complete(ctx, prompt, model)
		if err != nil {
			return err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return failure.Transient(errEmptySummary)
		}
		text = out
		return nil
	})
	s.metrics.AddSummarizeAttempts(model.String(), attempts)

	switch {
	case err == nil:
		slog.Debug("Summarized release notes", "model", model, "attempts", attempts, "chars", len(text))
		return models.Summary{Text: text, ModelID: model.String()}, nil
	case ctx.Err() != nil:
		return models.Summary{}, fmt.Errorf("summarization interrupted: %w", ctx.Err())
	case failure.IsTransient(err):
		return models.Summary{}, fmt.Errorf("%w after %d attempts: %w", ErrSummarizationUnavailable, attempts, err)
	default:
		return models.Summary{}, fmt.Errorf("failed to summarize release notes: %w", failure.Fatal(err))
	}
}

// BuildPrompt prefixes the instructions to notes cut to their first maxChars
// characters. The leading part of release notes is assumed to matter most.
func BuildPrompt(notes string, maxChars int) string {
	return instructions + `"` + truncate(notes, maxChars) + `"`
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
