package workflow

import (
	"strings"

	"github.com/maestrohq/maestro/config"
)

// Decision is the interpretation of user input at an approval gate.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	// DecisionOther means the input matched neither closed set. It is never
	// treated as approval: during planning it is a clarifying answer,
	// during execution a change or blocker request.
	DecisionOther Decision = "other"
)

// Vocabulary is the closed set of inputs recognized at approval gates.
type Vocabulary struct {
	approve map[string]bool
	reject  map[string]bool
}

// NewVocabulary builds a Vocabulary from the approval configuration.
// Matching is exact on the trimmed, lowercased input.
func NewVocabulary(cfg config.ApprovalConfig) *Vocabulary {
	v := &Vocabulary{
		approve: make(map[string]bool, len(cfg.Approve)),
		reject:  make(map[string]bool, len(cfg.Reject)),
	}
	for _, token := range cfg.Approve {
		v.approve[normalizeToken(token)] = true
	}
	for _, token := range cfg.Reject {
		v.reject[normalizeToken(token)] = true
	}
	return v
}

// Interpret classifies user input against the vocabulary.
func (v *Vocabulary) Interpret(input string) Decision {
	token := normalizeToken(input)
	switch {
	case v.approve[token]:
		return DecisionApprove
	case v.reject[token]:
		return DecisionReject
	default:
		return DecisionOther
	}
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
