package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/classify"
	"github.com/maestrohq/maestro/workflow"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), ".maestro"), nil)
	require.NoError(t, err)
	return s
}

func testPlan(t *testing.T, workspace string) *workflow.Plan {
	t.Helper()
	pipeline := workflow.Pipeline{
		{Index: 0, AgentID: "implementer", Stage: workflow.StageImplementation, Task: "do the work", Status: workflow.StepPending},
		{Index: 1, AgentID: "committer", Stage: workflow.StageGit, Task: "commit the work", Status: workflow.StepPending},
	}
	cls := classify.Classification{
		Type:       classify.TaskBugFix,
		Complexity: classify.ComplexitySimple,
		Risk:       classify.RiskLow,
	}
	plan, err := workflow.NewPlan(workspace, "fix the login redirect", nil, cls, pipeline)
	require.NoError(t, err)
	return plan
}

func TestFileStoreCreateAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	plan := testPlan(t, "web-app")

	require.NoError(t, s.Create(ctx, plan))

	loaded, err := s.Load(ctx, "web-app")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, loaded.ID)
	assert.Equal(t, plan.TaskDescription, loaded.TaskDescription)
	assert.Len(t, loaded.Pipeline, 2)
}

func TestFileStoreCreateConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testPlan(t, "web-app")
	require.NoError(t, s.Create(ctx, first))

	second := testPlan(t, "web-app")
	err := s.Create(ctx, second)
	require.ErrorIs(t, err, ErrPlanExists)

	// The stored plan is untouched.
	loaded, err := s.Load(ctx, "web-app")
	require.NoError(t, err)
	assert.Equal(t, first.ID, loaded.ID)
}

func TestFileStoreLoadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(context.Background(), "web-app")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestFileStoreSaveRequiresExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	plan := testPlan(t, "web-app")

	assert.ErrorIs(t, s.Save(ctx, plan), ErrPlanNotFound)

	require.NoError(t, s.Create(ctx, plan))
	plan.State.CurrentStep = 1
	require.NoError(t, s.Save(ctx, plan))

	loaded, err := s.Load(ctx, "web-app")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.State.CurrentStep)
}

func TestFileStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	plan := testPlan(t, "web-app")

	assert.ErrorIs(t, s.Delete(ctx, "web-app"), ErrPlanNotFound)

	require.NoError(t, s.Create(ctx, plan))

	exists, err := s.Exists(ctx, "web-app")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete(ctx, "web-app"))

	exists, err = s.Exists(ctx, "web-app")
	require.NoError(t, err)
	assert.False(t, exists)

	// A new plan can start once the old one is gone.
	require.NoError(t, s.Create(ctx, testPlan(t, "web-app")))
}

func TestFileStoreWorkspaceMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testPlan(t, "web-app")))

	_, err := s.Load(ctx, "other-app")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestFileStoreSaveSurvivesCrashArtifacts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	plan := testPlan(t, "web-app")
	require.NoError(t, s.Create(ctx, plan))

	// A leftover temp file from an interrupted save must not break reads.
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, ".tmp-leftover"), []byte("partial"), 0o644))

	loaded, err := s.Load(ctx, "web-app")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, loaded.ID)
}

func TestFileStoreQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q1 := workflow.NewQuestion("web-app", workflow.QuestionClarification, "Which database does the project use?")
	q1.CreatedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	q2 := workflow.NewQuestion("web-app", workflow.QuestionBlocker, "Migration would drop a column. Proceed?")
	q2.CreatedAt = time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	other := workflow.NewQuestion("other-app", workflow.QuestionClarification, "Unrelated question")

	require.NoError(t, s.Put(ctx, q2))
	require.NoError(t, s.Put(ctx, q1))
	require.NoError(t, s.Put(ctx, other))

	pending, err := s.ListPending(ctx, "web-app")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, q1.ID, pending[0].ID, "pending questions must come back oldest first")
	assert.Equal(t, q2.ID, pending[1].ID)

	require.NoError(t, q1.Resolve("PostgreSQL"))
	require.NoError(t, s.Put(ctx, q1))

	pending, err = s.ListPending(ctx, "web-app")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, q2.ID, pending[0].ID)

	got, err := s.Get(ctx, "web-app", q1.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.QuestionStatusAnswered, got.Status)

	_, err = s.Get(ctx, "web-app", other.ID)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	require.NoError(t, s.Purge(ctx, "web-app"))
	pending, err = s.ListPending(ctx, "web-app")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Other workspaces are untouched by a purge.
	_, err = s.Get(ctx, "other-app", other.ID)
	require.NoError(t, err)
}
