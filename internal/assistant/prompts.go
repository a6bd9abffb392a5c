package assistant

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/policy-bot/internal/policy"
)

const contextRule = "---------------------"

// answerPrompt is the concise-answer prompt used with keyword matching.
func answerPrompt(passages []string, query string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant providing official university policy information.\n")
	sb.WriteString("Provide **concise, to-the-point answers**. Only include the most relevant details.\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(contextRule + "\n")
	sb.WriteString(strings.Join(passages, " ") + "\n")
	sb.WriteString(contextRule + "\n\n")
	sb.WriteString("- Answer the user query in **2-3 sentences max**.\n")
	sb.WriteString("- If there are **specific steps**, summarize them in bullet points.\n")
	sb.WriteString("- Do NOT include unnecessary background details.\n")
	sb.WriteString("- If certain details are missing, mention where users can find them.\n\n")
	sb.WriteString("User Query: " + query + "\n")
	sb.WriteString("Answer:")
	return sb.String()
}

// focusedQuery steers retrieval and the answer toward the top classified
// policy.
func focusedQuery(query string, top policy.Policy) string {
	var sb strings.Builder
	sb.WriteString("Question: " + query + "\n\n")
	sb.WriteString("Relevant Policy: " + top.Name + "\n\n")
	sb.WriteString("You are a university policy expert. Provide:\n")
	sb.WriteString("1. Detailed answer with specific requirements\n")
	sb.WriteString("2. If there are *specific steps*, summarize them in bullet points\n")
	sb.WriteString("Example Response:\n")
	sb.WriteString("Missing 15% of classes results in AF grade")
	return sb.String()
}

// focusedPrompt wraps the focused query with retrieved context.
func focusedPrompt(passages []string, focused string) string {
	var sb strings.Builder
	sb.WriteString("Context information is below.\n")
	sb.WriteString(contextRule + "\n")
	sb.WriteString(strings.Join(passages, "\n\n") + "\n")
	sb.WriteString(contextRule + "\n")
	sb.WriteString("Given the context information and not prior knowledge, answer the query.\n")
	sb.WriteString("Query: " + focused + "\n")
	sb.WriteString("Answer:")
	return sb.String()
}

// classifiedAnswer lays out the classifier-mode reply: the ranked policies,
// the primary one, the answer and its reference link.
func classifiedAnswer(ranked []policy.Policy, primary policy.Policy, answer string) string {
	var sb strings.Builder
	sb.WriteString("**Top Relevant Policies:**\n")
	for _, p := range ranked {
		fmt.Fprintf(&sb, "- %s\n", p.Name)
	}
	fmt.Fprintf(&sb, "\n**Most Relevant Policy:** %s\n\n", primary.Name)
	fmt.Fprintf(&sb, "**Answer:**\n%s\n\n", answer)
	sb.WriteString(policy.Citation(primary))
	return sb.String()
}
