package workflow

import (
	"testing"

	"github.com/maestrohq/maestro/config"
)

func TestVocabularyInterpret(t *testing.T) {
	vocab := NewVocabulary(config.DefaultConfig().Approval)

	tests := []struct {
		input string
		want  Decision
	}{
		{"yes", DecisionApprove},
		{"y", DecisionApprove},
		{"approve", DecisionApprove},
		{"LGTM", DecisionApprove},
		{"  ok  ", DecisionApprove},
		{"no", DecisionReject},
		{"abort", DecisionReject},
		{"Cancel", DecisionReject},
		// Anything outside the closed sets is never implicit approval.
		{"sounds good I guess", DecisionOther},
		{"yes but change step 3", DecisionOther},
		{"", DecisionOther},
		{"maybe", DecisionOther},
	}

	for _, tt := range tests {
		name := tt.input
		if name == "" {
			name = "empty_input"
		}
		t.Run(name, func(t *testing.T) {
			if got := vocab.Interpret(tt.input); got != tt.want {
				t.Errorf("Interpret(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestVocabularyCustomTokens(t *testing.T) {
	vocab := NewVocabulary(config.ApprovalConfig{
		Approve: []string{"Ship It"},
		Reject:  []string{"belay"},
	})

	if got := vocab.Interpret("ship it"); got != DecisionApprove {
		t.Errorf("Interpret(ship it) = %s, want approve", got)
	}
	if got := vocab.Interpret("belay"); got != DecisionReject {
		t.Errorf("Interpret(belay) = %s, want reject", got)
	}
	// Defaults are replaced, not merged.
	if got := vocab.Interpret("yes"); got != DecisionOther {
		t.Errorf("Interpret(yes) = %s, want other", got)
	}
}
