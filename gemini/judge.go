package gemini

import (
	"context"
	"fmt"
	"strings"
)

type Judge struct {
	gen TextGenerator
}

func NewJudge(gen TextGenerator) *Judge {
	return &Judge{gen: gen}
}

// IsRelevant asks whether an image description plausibly shows the named dish.
// Anything other than an answer starting with "yes" counts as not relevant.
func (j *Judge) IsRelevant(ctx context.Context, description string, recipeName string) (bool, error) {
	prompt := fmt.Sprintf(
		"Does an image described as %q show the dish %q or a very similar plated food?\nAnswer with only yes or no.",
		description, recipeName,
	)

	answer, err := j.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return false, err
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return strings.HasPrefix(answer, "yes"), nil
}
