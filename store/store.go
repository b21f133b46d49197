// Package store persists plans and open questions. Two backends exist: a
// file backend writing JSON under the workspace .maestro directory and a
// NATS KV backend for shared deployments. Both enforce the same rule: a
// workspace holds at most one active plan, and creating a second one is a
// conflict, never an overwrite.
package store

import (
	"context"
	"errors"

	"github.com/maestrohq/maestro/workflow"
)

// Common store errors.
var (
	// ErrPlanExists is returned when a workspace already has an active plan.
	ErrPlanExists = errors.New("workspace already has an active plan")
	// ErrPlanNotFound is returned when a workspace has no active plan.
	ErrPlanNotFound = errors.New("no active plan for workspace")
	// ErrQuestionNotFound is returned when a question ID is unknown.
	ErrQuestionNotFound = errors.New("question not found")
)

// PlanStore stores the single active plan of a workspace.
type PlanStore interface {
	// Create stores a new plan. It fails with ErrPlanExists when the
	// workspace already has one; the stored plan is never overwritten.
	Create(ctx context.Context, plan *workflow.Plan) error
	// Load returns the active plan, or ErrPlanNotFound.
	Load(ctx context.Context, workspace string) (*workflow.Plan, error)
	// Save replaces the stored plan. The plan must already exist.
	Save(ctx context.Context, plan *workflow.Plan) error
	// Delete removes the active plan. Deleting a missing plan returns
	// ErrPlanNotFound.
	Delete(ctx context.Context, workspace string) error
	// Exists reports whether the workspace has an active plan.
	Exists(ctx context.Context, workspace string) (bool, error)
}

// QuestionStore stores open questions raised during planning and execution.
type QuestionStore interface {
	// Put stores or replaces a question.
	Put(ctx context.Context, q *workflow.Question) error
	// Get returns a question by ID, or ErrQuestionNotFound.
	Get(ctx context.Context, workspace, id string) (*workflow.Question, error)
	// ListPending returns the unanswered questions of a workspace, ordered
	// by creation time.
	ListPending(ctx context.Context, workspace string) ([]*workflow.Question, error)
	// Purge removes all questions of a workspace.
	Purge(ctx context.Context, workspace string) error
}
