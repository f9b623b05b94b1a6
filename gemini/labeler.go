// Package gemini labels search intent with Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/serpscope"
	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Ensure IntentLabeler implements serpscope.IntentLabeler at compile time.
var _ serpscope.IntentLabeler = (*IntentLabeler)(nil)

// IntentLabeler implements serpscope.IntentLabeler using Google Gemini.
type IntentLabeler struct {
	client *genai.Client
	model  string
}

// Option configures an IntentLabeler.
type Option func(*IntentLabeler)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(l *IntentLabeler) { l.model = model }
}

// NewIntentLabeler creates a new IntentLabeler.
func NewIntentLabeler(client *genai.Client, opts ...Option) *IntentLabeler {
	l := &IntentLabeler{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LabelIntent asks the model for the search intent of query. The answer is
// constrained to the known intents.
func (l *IntentLabeler) LabelIntent(ctx context.Context, query string, themes []serpscope.Theme) (serpscope.Intent, error) {
	if strings.TrimSpace(query) == "" {
		return "", serpscope.Errorf(serpscope.EINVALID, "query required")
	}
	if l.client == nil {
		return "", serpscope.Errorf(serpscope.EINTERNAL, "gemini client not configured")
	}

	result, err := l.client.Models.GenerateContent(ctx, l.model,
		[]*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: BuildUserPrompt(query, themes)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return "", fmt.Errorf("labeling intent: %w", err)
	}
	if result == nil {
		return "", serpscope.Errorf(serpscope.EINTERNAL, "gemini returned nil result")
	}

	label := result.Text()
	intent, ok := serpscope.ParseIntent(label)
	if !ok {
		return "", serpscope.Errorf(serpscope.EINTERNAL, "unexpected intent label %q", label)
	}
	return intent, nil
}

// BuildConfig returns the GenerateContentConfig for intent labeling.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You classify the search intent of a query from the headings that the top ranking pages use. " +
					"Answer with exactly one of: Informational, Transactional, Navigational.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "text/x.enum",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeString,
			Enum: []string{
				string(serpscope.Informational),
				string(serpscope.Transactional),
				string(serpscope.Navigational),
			},
		},
	}
}

// BuildUserPrompt builds the user prompt containing the query and themes.
func BuildUserPrompt(query string, themes []serpscope.Theme) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<query>%s</query>\n", query)
	sb.WriteString("<themes>\n")
	for _, t := range themes {
		fmt.Fprintf(&sb, "<theme score=\"%d\">%s</theme>\n", t.Score, t.Text)
	}
	sb.WriteString("</themes>")
	return sb.String()
}
