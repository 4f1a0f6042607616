package openai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"dcaBot/internal/finance"
)

const DefaultModel = "gpt-4"

// Narrator asks a chat model for a short plain-language read of a
// comparison.
type Narrator struct {
	cli   oa.Client
	model string
}

func NewNarrator(apiKey, model string, opts ...option.RequestOption) *Narrator {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Narrator{cli: oa.NewClient(opts...), model: model}
}

const systemPrompt = `You explain dollar-cost averaging backtests to retail investors.
You receive the setup and results of a simulation that bought whole shares of an equal-split basket on a fixed schedule and compared it with a benchmark bought the same way.

Your response must follow this structure:

**What happened:**
[Two or three sentences on how the basket did against the benchmark]

**Why:**
[Which holdings or periods drove the gap, in plain words]

**Keep in mind:**
[Caveats: past results, uninvested cash from whole-share buying, data source]

Guidelines:
- Stay neutral; never recommend buying or selling
- Use the numbers you are given, do not invent others
- Keep it under 180 words`

// Explain returns the narrative for c.
func (n *Narrator) Explain(ctx context.Context, c *finance.Comparison) (string, error) {
	if c == nil || c.Portfolio == nil {
		return "", fmt.Errorf("nothing to explain")
	}
	resp, err := n.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: shared.ChatModel(n.model),
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(buildPrompt(c)),
		},
		MaxTokens: oa.Int(600), // keep telegram replies short
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	out := sanitize(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return out, nil
}

// buildPrompt lays out the comparison as the user message.
func buildPrompt(c *finance.Comparison) string {
	var b strings.Builder
	b.WriteString(finance.FormatReport(c))

	final := c.Portfolio.Final()
	b.WriteString("\nHoldings at the end:\n")
	for _, h := range final.Holdings {
		fmt.Fprintf(&b, "- %s: %d shares at %s, value %s, uninvested cash %s\n",
			h.AssetID, h.Shares, h.Price.StringFixed(2), h.Value().StringFixed(2), h.Leftover.StringFixed(2))
	}
	b.WriteString("\nExplain this result following the structured format.")
	return b.String()
}

var (
	reMarkdownImg = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`) // ![alt](url)
	reURL         = regexp.MustCompile(`https?://\S+`)
)

// sanitize strips links and media references from model output and caps
// its length to what fits a telegram message.
func sanitize(text string) string {
	text = reMarkdownImg.ReplaceAllString(text, "")
	text = reURL.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if len(text) > 3500 {
		text = text[:3500]
	}
	return text
}
