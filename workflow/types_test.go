package workflow

import "testing"

func TestPhaseTransitions(t *testing.T) {
	tests := []struct {
		name string
		from Phase
		to   Phase
		want bool
	}{
		{"planning to execution", PhasePlanning, PhaseExecution, true},
		{"execution to planning (plan change)", PhaseExecution, PhasePlanning, true},
		{"planning to planning", PhasePlanning, PhasePlanning, false},
		{"execution to execution", PhaseExecution, PhaseExecution, false},
		{"unknown phase", Phase("idle"), PhaseExecution, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStepStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from StepStatus
		to   StepStatus
		want bool
	}{
		{"pending to running", StepPending, StepRunning, true},
		{"pending to completed", StepPending, StepCompleted, false},
		{"running to completed", StepRunning, StepCompleted, true},
		{"running to failed", StepRunning, StepFailed, true},
		{"running to blocked", StepRunning, StepBlocked, true},
		{"failed to running (retry)", StepFailed, StepRunning, true},
		{"blocked to running (decision)", StepBlocked, StepRunning, true},
		{"completed is terminal", StepCompleted, StepRunning, false},
		{"completed to failed", StepCompleted, StepFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStageOrder(t *testing.T) {
	if StageDesign.Order() >= StageImplementation.Order() {
		t.Error("design must precede implementation")
	}
	if StageImplementation.Order() >= StageQuality.Order() {
		t.Error("implementation must precede quality")
	}
	if StageQuality.Order() >= StageGit.Order() {
		t.Error("quality must precede git")
	}
	if Stage("deploy").Order() != len(Stages) {
		t.Error("unknown stages must sort last")
	}
}

func TestValidateWorkspace(t *testing.T) {
	tests := []struct {
		name      string
		workspace string
		wantErr   bool
	}{
		{"simple", "my-project", false},
		{"single char", "a", false},
		{"numeric", "project-2", false},
		{"empty", "", true},
		{"uppercase", "MyProject", true},
		{"path traversal", "../etc", true},
		{"slash", "a/b", true},
		{"leading hyphen", "-abc", true},
		{"trailing hyphen", "abc-", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWorkspace(tt.workspace)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWorkspace(%q) error = %v, wantErr %v", tt.workspace, err, tt.wantErr)
			}
		})
	}
}
