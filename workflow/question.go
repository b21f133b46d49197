package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QuestionStatus represents the status of a question.
type QuestionStatus string

const (
	QuestionStatusPending  QuestionStatus = "pending"
	QuestionStatusAnswered QuestionStatus = "answered"
)

// QuestionKind distinguishes what kind of decision a question asks for.
type QuestionKind string

const (
	// QuestionClarification is raised during planning: an ambiguous
	// detection or an unclassifiable request.
	QuestionClarification QuestionKind = "clarification"
	// QuestionBlocker is raised during execution: a step precondition
	// failed and a remediation must be chosen.
	QuestionBlocker QuestionKind = "blocker"
)

// Question represents a decision the workflow is waiting on. Questions are
// asked by the engine and answered by the user; they are never auto-resolved.
type Question struct {
	// ID uniquely identifies this question (format: q-{uuid})
	ID string `json:"id"`

	// Workspace ties the question to a workspace's active plan
	Workspace string `json:"workspace"`

	// Kind is the question kind
	Kind QuestionKind `json:"kind"`

	// Text is the actual question text
	Text string `json:"text"`

	// Context provides background information for the answerer
	Context string `json:"context,omitempty"`

	// Options enumerates the allowed answers. Empty for free-form
	// clarifications; blockers always enumerate their remediations.
	Options []string `json:"options,omitempty"`

	// StepIndex is the pipeline step a blocker question refers to
	StepIndex int `json:"step_index,omitempty"`

	// Status is the current state of the question
	Status QuestionStatus `json:"status"`

	// Answer is the recorded answer, present once answered
	Answer string `json:"answer,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// NewQuestion creates a pending question.
func NewQuestion(workspace string, kind QuestionKind, text string) *Question {
	return &Question{
		ID:        fmt.Sprintf("q-%s", uuid.New().String()),
		Workspace: workspace,
		Kind:      kind,
		Text:      text,
		Status:    QuestionStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Resolve records the answer and marks the question answered.
func (q *Question) Resolve(answer string) error {
	if q.Status == QuestionStatusAnswered {
		return fmt.Errorf("%w: question %s is already answered", ErrInvalidTransition, q.ID)
	}
	if len(q.Options) > 0 && !q.AllowsAnswer(answer) {
		return fmt.Errorf("answer %q is not among the enumerated options", answer)
	}
	now := time.Now().UTC()
	q.Answer = answer
	q.Status = QuestionStatusAnswered
	q.AnsweredAt = &now
	return nil
}

// AllowsAnswer reports whether the answer is valid for this question.
func (q *Question) AllowsAnswer(answer string) bool {
	if len(q.Options) == 0 {
		return true
	}
	for _, opt := range q.Options {
		if opt == answer {
			return true
		}
	}
	return false
}
