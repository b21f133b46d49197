package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/maestrohq/maestro/workflow"
)

// Bucket names for the KV backend.
const (
	BucketPlans     = "MAESTRO_PLANS"
	BucketQuestions = "MAESTRO_QUESTIONS"
)

// kvHistory revisions are kept per key so a bad save can be inspected.
const kvHistory = 5

// KVStore persists plans and questions in NATS JetStream KV buckets, keyed
// by workspace. KV Create gives the same create-once semantics the file
// backend gets from O_EXCL.
type KVStore struct {
	plans     jetstream.KeyValue
	questions jetstream.KeyValue
	logger    *slog.Logger
}

// NewKVStore creates the KV buckets if needed and returns the store.
func NewKVStore(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) (*KVStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	plans, err := getOrCreateBucket(ctx, js, BucketPlans, "Maestro active plans, one per workspace")
	if err != nil {
		return nil, fmt.Errorf("create plans bucket: %w", err)
	}
	questions, err := getOrCreateBucket(ctx, js, BucketQuestions, "Maestro open questions")
	if err != nil {
		return nil, fmt.Errorf("create questions bucket: %w", err)
	}

	return &KVStore{plans: plans, questions: questions, logger: logger}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name, description string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: description,
		History:     kvHistory,
	})
}

// Create stores a new plan for its workspace.
func (s *KVStore) Create(ctx context.Context, plan *workflow.Plan) error {
	if err := workflow.ValidateWorkspace(plan.Workspace); err != nil {
		return err
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	if _, err := s.plans.Create(ctx, plan.Workspace, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("%w: %s", ErrPlanExists, plan.Workspace)
		}
		return fmt.Errorf("store plan: %w", err)
	}

	s.logger.Debug("plan created", "workspace", plan.Workspace, "plan_id", plan.ID)
	return nil
}

// Load returns the active plan for the workspace.
func (s *KVStore) Load(ctx context.Context, workspace string) (*workflow.Plan, error) {
	entry, err := s.plans.Get(ctx, workspace)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, workspace)
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}

	var plan workflow.Plan
	if err := json.Unmarshal(entry.Value(), &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	return &plan, nil
}

// Save replaces the stored plan.
func (s *KVStore) Save(ctx context.Context, plan *workflow.Plan) error {
	if _, err := s.Load(ctx, plan.Workspace); err != nil {
		return err
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if _, err := s.plans.Put(ctx, plan.Workspace, data); err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return nil
}

// Delete removes the active plan. Purge drops the key's history too, so a
// finished workspace leaves nothing behind to conflict with the next plan.
func (s *KVStore) Delete(ctx context.Context, workspace string) error {
	if _, err := s.Load(ctx, workspace); err != nil {
		return err
	}
	if err := s.plans.Purge(ctx, workspace); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	s.logger.Debug("plan deleted", "workspace", workspace)
	return nil
}

// Exists reports whether the workspace has an active plan.
func (s *KVStore) Exists(ctx context.Context, workspace string) (bool, error) {
	_, err := s.plans.Get(ctx, workspace)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get plan: %w", err)
	}
	return true, nil
}

// questionKey namespaces question IDs by workspace.
func questionKey(workspace, id string) string {
	return workspace + "." + id
}

// Put stores or replaces a question.
func (s *KVStore) Put(ctx context.Context, q *workflow.Question) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	if _, err := s.questions.Put(ctx, questionKey(q.Workspace, q.ID), data); err != nil {
		return fmt.Errorf("store question: %w", err)
	}
	return nil
}

// Get returns a question by ID.
func (s *KVStore) Get(ctx context.Context, workspace, id string) (*workflow.Question, error) {
	entry, err := s.questions.Get(ctx, questionKey(workspace, id))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
		}
		return nil, fmt.Errorf("get question: %w", err)
	}

	var q workflow.Question
	if err := json.Unmarshal(entry.Value(), &q); err != nil {
		return nil, fmt.Errorf("unmarshal question: %w", err)
	}
	return &q, nil
}

// ListPending returns unanswered questions for the workspace, oldest first.
func (s *KVStore) ListPending(ctx context.Context, workspace string) ([]*workflow.Question, error) {
	keys, err := s.questions.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list question keys: %w", err)
	}

	var pending []*workflow.Question
	prefix := workspace + "."
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entry, err := s.questions.Get(ctx, key)
		if err != nil {
			continue
		}
		var q workflow.Question
		if err := json.Unmarshal(entry.Value(), &q); err != nil {
			continue
		}
		if q.Status == workflow.QuestionStatusPending {
			pending = append(pending, &q)
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
func (s *KVStore) Purge(ctx context.Context, workspace string) error {
	keys, err := s.questions.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("list question keys: %w", err)
	}

	prefix := workspace + "."
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := s.questions.Purge(ctx, key); err != nil {
			return fmt.Errorf("purge question %s: %w", key, err)
		}
	}
	return nil
}
