// Package corpus fetches the policy pages named in the registry and turns
// them into plain-text documents.
package corpus

// Document is the cleaned text of one policy page.
type Document struct {
	Source string // page URL
	Name   string // policy name from the registry
	Text   string
}

// Skipped records a policy page that did not make it into the corpus.
type Skipped struct {
	Source string
	Name   string
	Reason string
}
