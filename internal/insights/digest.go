package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/plateiq/pkg/models"
)

// chatCompleter is the slice of the OpenAI client the digester uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Digester summarizes a recommendation batch into a short narrative for
// weekly business reviews. A nil Digester is valid and reports itself
// disabled, so wiring stays unconditional.
type Digester struct {
	client chatCompleter
	model  string
}

// NewDigester creates a digester for the given API key and model.
func NewDigester(apiKey, model string) *Digester {
	return &Digester{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Enabled reports whether digests can be generated.
func (d *Digester) Enabled() bool {
	return d != nil
}

// Digest turns the recommendation batch into a few sentences of narrative.
func (d *Digester) Digest(ctx context.Context, batch []models.StrategicRecommendation) (string, error) {
	if d == nil {
		return "", fmt.Errorf("insights digester is not configured")
	}
	if len(batch) == 0 {
		return "No open recommendations. Business metrics are within healthy thresholds.", nil
	}

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You summarize prioritized business recommendations for a subscription " +
					"meal-planning product into a short executive digest. Three sentences maximum.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: formatBatch(batch),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generating digest: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generating digest: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func formatBatch(batch []models.StrategicRecommendation) string {
	var b strings.Builder
	for i, rec := range batch {
		fmt.Fprintf(&b, "%d. [%s/%s] %s: %s\n", i+1, rec.Category, rec.Priority, rec.Title, rec.Description)
	}
	return b.String()
}
