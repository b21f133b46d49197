package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/classify"
	"github.com/maestrohq/maestro/detect"
	"github.com/maestrohq/maestro/workflow"
)

func profileWith(techs map[detect.Category]string) *detect.Profile {
	p := &detect.Profile{
		Root:       "/work/app",
		Detections: make(map[detect.Category]detect.Detection, len(techs)),
	}
	for cat, tech := range techs {
		p.Detections[cat] = detect.Detection{
			Technology: tech,
			Marker:     "test",
			Confidence: detect.ConfidenceHigh,
		}
	}
	return p
}

func classification(t classify.TaskType, c classify.Complexity) classify.Classification {
	return classify.Classification{Type: t, Complexity: c, Risk: classify.RiskLow}
}

func agentIDs(p workflow.Pipeline) []string {
	ids := make([]string, len(p))
	for i, s := range p {
		ids[i] = s.AgentID
	}
	return ids
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NotZero(t, c.Len())
	for _, id := range []string{"architect", "implementer", "reviewer", "tester", "committer"} {
		assert.True(t, c.Has(id), "core agent %s missing", id)
	}
	_, err := c.Get("no-such-agent")
	assert.ErrorIs(t, err, ErrUnknownDescriptor)
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New([]Descriptor{
		{ID: "implementer", Category: CategoryCore, Stage: workflow.StageImplementation},
		{ID: "implementer", Category: CategoryCore, Stage: workflow.StageImplementation},
	})
	assert.ErrorIs(t, err, ErrDuplicateDescriptor)
}

func TestSelectCoreAgentsWithoutProfile(t *testing.T) {
	c := Default()
	pipeline := c.Select(nil, classification(classify.TaskNewFeature, classify.ComplexityModerate), "add export endpoint")

	assert.Equal(t, []string{"architect", "implementer", "reviewer", "tester", "committer"}, agentIDs(pipeline))
	for i, step := range pipeline {
		assert.Equal(t, i, step.Index)
		assert.Equal(t, workflow.StepPending, step.Status)
		assert.Contains(t, step.Task, "add export endpoint")
		assert.NotEmpty(t, step.ExpectedOutput)
	}
}

func TestSelectActivatesMatchingSpecialists(t *testing.T) {
	c := Default()
	profile := profileWith(map[detect.Category]string{
		detect.CategoryFrontendFramework: "React",
		detect.CategoryContainerization:  "Docker",
	})
	pipeline := c.Select(profile, classification(classify.TaskNewFeature, classify.ComplexityModerate), "add dashboard page")

	ids := agentIDs(pipeline)
	assert.Contains(t, ids, "react-specialist")
	assert.Contains(t, ids, "docker-specialist")
	assert.NotContains(t, ids, "vue-specialist")
	assert.NotContains(t, ids, "django-specialist")

	// Within the implementation stage specialists follow the implementer
	// and order by priority.
	impl := pipeline.StepsInStage(workflow.StageImplementation)
	require.Len(t, impl, 3)
	assert.Equal(t, "implementer", impl[0].AgentID)
	assert.Equal(t, "react-specialist", impl[1].AgentID)
	assert.Equal(t, "docker-specialist", impl[2].AgentID)
}

func TestSelectTrivialCarriesNoSpecialists(t *testing.T) {
	c := Default()
	profile := profileWith(map[detect.Category]string{
		detect.CategoryFrontendFramework: "React",
		detect.CategoryDatabase:          "PostgreSQL",
		detect.CategoryContainerization:  "Docker",
	})
	pipeline := c.Select(profile, classification(classify.TaskBugFix, classify.ComplexityTrivial), "fix typo in banner")

	for _, step := range pipeline {
		d, err := c.Get(step.AgentID)
		require.NoError(t, err)
		assert.Equal(t, CategoryCore, d.Category, "trivial pipeline carried specialist %s", step.AgentID)
	}
}

func TestSelectBudgetTrimsByPriority(t *testing.T) {
	c := Default()
	profile := profileWith(map[detect.Category]string{
		detect.CategoryFrontendFramework: "React",
		detect.CategoryDatabase:          "PostgreSQL",
		detect.CategoryORM:               "Prisma",
		detect.CategoryStyling:           "Tailwind CSS",
		detect.CategoryContainerization:  "Docker",
		detect.CategoryCI:                "GitHub Actions",
	})

	simple := c.Select(profile, classification(classify.TaskNewFeature, classify.ComplexitySimple), "add a widget")
	var specialists []string
	for _, step := range simple {
		d, err := c.Get(step.AgentID)
		require.NoError(t, err)
		if d.Category == CategorySpecialist {
			specialists = append(specialists, step.AgentID)
		}
	}
	// Six specialists match; only the two lowest-priority ones survive the
	// simple budget.
	assert.Equal(t, []string{"react-specialist", "database-specialist"}, specialists)

	critical := c.Select(profile, classification(classify.TaskNewFeature, classify.ComplexityCritical), "add a widget")
	ids := agentIDs(critical)
	for _, id := range []string{
		"react-specialist", "database-specialist", "orm-specialist",
		"styling-specialist", "docker-specialist", "cicd-specialist",
	} {
		assert.Contains(t, ids, id, "critical pipeline dropped %s", id)
	}
}

func TestSelectActivatesSpringSpecialist(t *testing.T) {
	c := Default()
	profile := profileWith(map[detect.Category]string{
		detect.CategoryBackendFramework: "Spring Boot",
	})
	pipeline := c.Select(profile, classification(classify.TaskNewFeature, classify.ComplexityCritical), "add billing module")
	assert.Contains(t, agentIDs(pipeline), "spring-specialist")
}

// A specialist whose technology string the signature table never emits can
// never activate. Every specialist must be reachable from at least one rule.
func TestDefaultSpecialistsActivateFromSignatureTable(t *testing.T) {
	table := detect.DefaultTable()
	for _, d := range Default().descriptors {
		if d.Category != CategorySpecialist {
			continue
		}
		activated := false
		for _, rule := range table.Rules {
			p := profileWith(map[detect.Category]string{rule.Category: rule.Technology})
			if d.Matches(p) {
				activated = true
				break
			}
		}
		assert.True(t, activated, "specialist %s matches no technology the default table can detect", d.ID)
	}
}

func TestSelectStagesFollowTaskType(t *testing.T) {
	c := Default()

	docs := c.Select(nil, classification(classify.TaskDocumentation, classify.ComplexitySimple), "document the API")
	assert.Empty(t, docs.StepsInStage(workflow.StageDesign))
	assert.Empty(t, docs.StepsInStage(workflow.StageQuality))
	assert.NotEmpty(t, docs.StepsInStage(workflow.StageGit))

	bugfix := c.Select(nil, classification(classify.TaskBugFix, classify.ComplexitySimple), "fix login redirect")
	assert.Empty(t, bugfix.StepsInStage(workflow.StageDesign))
	assert.NotEmpty(t, bugfix.StepsInStage(workflow.StageQuality))
}

func TestSelectDeterministic(t *testing.T) {
	c := Default()
	profile := profileWith(map[detect.Category]string{
		detect.CategoryLanguage:         "Go",
		detect.CategoryBackendFramework: "Gin",
		detect.CategoryDatabase:         "PostgreSQL",
		detect.CategoryContainerization: "Docker",
		detect.CategoryCI:               "GitHub Actions",
	})
	cls := classification(classify.TaskNewFeature, classify.ComplexityComplex)

	first, err := json.Marshal(c.Select(profile, cls, "add audit logging"))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		next, err := json.Marshal(c.Select(profile, cls, "add audit logging"))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(next), "pipeline differed on iteration %d", i)
	}
}
