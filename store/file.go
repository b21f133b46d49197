package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/maestrohq/maestro/workflow"
)

// File names inside the workspace state directory.
const (
	PlanFile      = "plan.json"
	QuestionsFile = "questions.json"
)

// FileStore persists a workspace's plan and questions as JSON files inside
// its state directory. The plan file doubles as the lock: its existence is
// what makes a plan active, so creation uses O_EXCL and replacement writes
// to a temp file and renames.
type FileStore struct {
	dir    string
	logger *slog.Logger

	mu sync.Mutex
}

// NewFileStore creates a file store rooted at the workspace state directory
// (typically <root>/.maestro). The directory is created if missing.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) planPath() string {
	return filepath.Join(s.dir, PlanFile)
}

func (s *FileStore) questionsPath() string {
	return filepath.Join(s.dir, QuestionsFile)
}

// Create stores a new plan. The O_EXCL open makes concurrent creates race
// safely: exactly one wins, the rest get ErrPlanExists.
func (s *FileStore) Create(ctx context.Context, plan *workflow.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := workflow.ValidateWorkspace(plan.Workspace); err != nil {
		return err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	f, err := os.OpenFile(s.planPath(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrPlanExists, plan.Workspace)
		}
		return fmt.Errorf("create plan file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(s.planPath())
		return fmt.Errorf("write plan file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(s.planPath())
		return fmt.Errorf("close plan file: %w", err)
	}

	s.logger.Debug("plan created", "workspace", plan.Workspace, "plan_id", plan.ID)
	return nil
}

// Load returns the active plan for the workspace.
func (s *FileStore) Load(ctx context.Context, workspace string) (*workflow.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(workspace)
}

func (s *FileStore) loadLocked(workspace string) (*workflow.Plan, error) {
	data, err := os.ReadFile(s.planPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, workspace)
		}
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	var plan workflow.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	if plan.Workspace != workspace {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, workspace)
	}
	return &plan, nil
}

// Save replaces the stored plan. The write goes through a temp file and a
// rename so a crash mid-write never corrupts the active plan.
func (s *FileStore) Save(ctx context.Context, plan *workflow.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadLocked(plan.Workspace); err != nil {
		return err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	return s.writeAtomic(s.planPath(), data)
}

// Delete removes the active plan.
func (s *FileStore) Delete(ctx context.Context, workspace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadLocked(workspace); err != nil {
		return err
	}
	if err := os.Remove(s.planPath()); err != nil {
		return fmt.Errorf("remove plan file: %w", err)
	}
	s.logger.Debug("plan deleted", "workspace", workspace)
	return nil
}

// Exists reports whether the workspace has an active plan.
func (s *FileStore) Exists(ctx context.Context, workspace string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.loadLocked(workspace)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Put stores or replaces a question.
func (s *FileStore) Put(ctx context.Context, q *workflow.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := s.readQuestions()
	if err != nil {
		return err
	}
	questions[q.ID] = q
	return s.writeQuestions(questions)
}

// Get returns a question by ID.
func (s *FileStore) Get(ctx context.Context, workspace, id string) (*workflow.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := s.readQuestions()
	if err != nil {
		return nil, err
	}
	q, ok := questions[id]
	if !ok || q.Workspace != workspace {
		return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	return q, nil
}

// ListPending returns unanswered questions for the workspace, oldest first.
func (s *FileStore) ListPending(ctx context.Context, workspace string) ([]*workflow.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := s.readQuestions()
	if err != nil {
		return nil, err
	}

	var pending []*workflow.Question
	for _, q := range questions {
		if q.Workspace == workspace && q.Status == workflow.QuestionStatusPending {
			pending = append(pending, q)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].ID < pending[j].ID
	})
	return pending, nil
}

// Purge removes all questions of a workspace.
func (s *FileStore) Purge(ctx context.Context, workspace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions, err := s.readQuestions()
	if err != nil {
		return err
	}
	for id, q := range questions {
		if q.Workspace == workspace {
			delete(questions, id)
		}
	}
	return s.writeQuestions(questions)
}

func (s *FileStore) readQuestions() (map[string]*workflow.Question, error) {
	data, err := os.ReadFile(s.questionsPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]*workflow.Question), nil
		}
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	var questions map[string]*workflow.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	if questions == nil {
		questions = make(map[string]*workflow.Question)
	}
	return questions, nil
}

func (s *FileStore) writeQuestions(questions map[string]*workflow.Question) error {
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	return s.writeAtomic(s.questionsPath(), data)
}

func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
