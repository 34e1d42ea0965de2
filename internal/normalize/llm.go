package normalize

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

const roleSystemPrompt = `You identify a person's job title at a company.
Reply with the job title only, for example "CEO" or "Vice President of Sales".
If you cannot determine the title, reply with exactly "unknown".`

// LLMRoleExtractor resolves missing titles with a single model call per lead.
// Used only as a fallback when the source record carries no title field.
type LLMRoleExtractor struct {
	client anthropic.Client
	model  string
}

// NewLLMRoleExtractor builds the fallback extractor.
func NewLLMRoleExtractor(client anthropic.Client, model string) *LLMRoleExtractor {
	return &LLMRoleExtractor{client: client, model: model}
}

// ExtractRole implements RoleExtractor. An "unknown" reply maps to the empty
// string so the caller treats it like any other missing title.
func (e *LLMRoleExtractor) ExtractRole(ctx context.Context, fullName, company string) (string, error) {
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 64,
		System:    roleSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: "Person: " + fullName + "\nCompany: " + company},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "normalize: role lookup")
	}
	resp.Usage.LogCost(e.model, "role_extraction")

	title := strings.TrimSpace(resp.Text)
	title = strings.Trim(title, `"`)
	if strings.EqualFold(title, "unknown") {
		return "", nil
	}
	return title, nil
}
