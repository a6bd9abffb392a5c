package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/policy-bot/internal/llm"
)

const (
	// ClassifiedPolicies is how many policies the classifier always returns
	// for a query it accepts.
	ClassifiedPolicies = 3

	// MinQueryLength is the trimmed length below which a query is too vague
	// to classify.
	MinQueryLength = 3

	tooVague = "toovague"
)

// Classifier asks the language model which registry policies a query is
// about.
type Classifier struct {
	registry *Registry
	provider llm.Provider
}

func NewClassifier(r *Registry, provider llm.Provider) *Classifier {
	return &Classifier{registry: r, provider: provider}
}

// Classify returns exactly ClassifiedPolicies ranked policies (fewer only if
// the registry is smaller), or an empty slice when the query is too vague.
// Queries shorter than MinQueryLength never reach the model.
func (c *Classifier) Classify(ctx context.Context, query string) ([]Policy, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, nil
	}

	resp, err := c.provider.Complete(ctx, llm.UserPrompt(c.prompt(query)))
	if err != nil {
		return nil, fmt.Errorf("classify query: %w", err)
	}
	return c.parse(resp.Content), nil
}

func (c *Classifier) prompt(query string) string {
	quoted := make([]string, 0, c.registry.Len())
	for _, name := range c.registry.Names() {
		quoted = append(quoted, fmt.Sprintf("%q", name))
	}

	var sb strings.Builder
	sb.WriteString("You are an expert in university student affairs. ")
	sb.WriteString(fmt.Sprintf("Given the following question, FIRST determine if it relates to any of these %d policies. ", c.registry.Len()))
	sb.WriteString("First analyze the question well. If too vague/unclear, respond with 'TooVague'. Otherwise:\n")
	sb.WriteString(fmt.Sprintf("1. Identify ALL potentially relevant policies (max %d most relevant). You MUST choose %d policies from this list, even if fewer seem relevant\n",
		ClassifiedPolicies, ClassifiedPolicies))
	sb.WriteString(fmt.Sprintf("2. You MUST return EXACTLY %d comma-separated policy names from this list:\n", ClassifiedPolicies))
	sb.WriteString("[" + strings.Join(quoted, ", ") + "]\n\n")
	sb.WriteString("Question: " + query + "\n")
	sb.WriteString(fmt.Sprintf("Response format: 'TooVague' or %d policy names separated by commas", ClassifiedPolicies))
	return sb.String()
}

// parse keeps the registry names found in a comma-separated model reply and
// pads with unused registry entries, in registry order.
func (c *Classifier) parse(reply string) []Policy {
	reply = strings.TrimSpace(reply)
	if strings.ToLower(strings.Trim(reply, `'".`)) == tooVague {
		return nil
	}

	chosen := make(map[string]bool)
	var out []Policy
	for _, raw := range strings.Split(reply, ",") {
		name := strings.Trim(strings.TrimSpace(raw), `'"`)
		p, ok := c.registry.Lookup(name)
		if !ok || chosen[name] {
			continue
		}
		chosen[name] = true
		out = append(out, p)
	}

	for _, p := range c.registry.policies {
		if len(out) >= ClassifiedPolicies {
			break
		}
		if !chosen[p.Name] {
			chosen[p.Name] = true
			out = append(out, p)
		}
	}

	if len(out) > ClassifiedPolicies {
		out = out[:ClassifiedPolicies]
	}
	return out
}
