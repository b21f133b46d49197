package commands

import (
	"testing"

	"github.com/maestrohq/maestro/workflow"
)

func TestWorkspaceSlug(t *testing.T) {
	tests := []struct {
		root string
		want string
	}{
		{"/home/dev/web-app", "web-app"},
		{"/home/dev/My Project", "my-project"},
		{"/home/dev/app_v2", "app-v2"},
		{"/home/dev/---", "workspace"},
		{"/srv/UPPER.case.repo", "upper-case-repo"},
	}
	for _, tt := range tests {
		got := workspaceSlug(tt.root)
		if got != tt.want {
			t.Errorf("workspaceSlug(%q) = %q, want %q", tt.root, got, tt.want)
		}
		if err := workflow.ValidateWorkspace(got); err != nil {
			t.Errorf("workspaceSlug(%q) produced invalid id %q: %v", tt.root, got, err)
		}
	}
}

func TestParseStepDrafts(t *testing.T) {
	drafts, err := parseStepDrafts([]string{"implementer:implementation:add a feature flag"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	d := drafts[0]
	if d.AgentID != "implementer" || d.Stage != workflow.StageImplementation || d.Task != "add a feature flag" {
		t.Errorf("unexpected draft: %+v", d)
	}

	if _, err := parseStepDrafts([]string{"implementer:no-task"}); err == nil {
		t.Error("expected error for malformed spec")
	}
}
